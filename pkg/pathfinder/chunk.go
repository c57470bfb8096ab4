package pathfinder

// ChunkComponents partitions components (already in a stable order) into
// groups of at most numComps entries each. numComps <= 0 means "one
// chunk holding every component", i.e. solvec decomposition runs once
// per device rather than once per sub-group of its components.
func ChunkComponents(components []string, numComps int) [][]string {
	if len(components) == 0 {
		return nil
	}
	if numComps <= 0 {
		whole := append([]string(nil), components...)
		return [][]string{whole}
	}

	var chunks [][]string
	for i := 0; i < len(components); i += numComps {
		end := i + numComps
		if end > len(components) {
			end = len(components)
		}
		chunks = append(chunks, append([]string(nil), components[i:end]...))
	}
	return chunks
}
