package messaging

// Subject constants for the log record bus.
// Follow the pattern: {domain}.{resource}.{state}
const (
	// SubjectRecordsRaw carries envelopes from collectors.
	SubjectRecordsRaw = "logs.records.raw"
	// SubjectRecordsNormalized carries normalized records.
	SubjectRecordsNormalized = "logs.records.normalized"
)

// QueueNormalizerWorkers is the queue group shared by normalizer replicas so
// each raw record is processed once.
const QueueNormalizerWorkers = "normalizer-workers"

// NormalizedSubject returns the per-index subject for a normalized record,
// e.g. logs.records.normalized.operations. Index names are sanitized since
// '.' and wildcards are significant in subjects.
func NormalizedSubject(base, indexName string) string {
	if indexName == "" {
		return base
	}
	out := make([]byte, 0, len(indexName))
	for i := 0; i < len(indexName); i++ {
		switch c := indexName[i]; c {
		case '.', '*', '>', ' ':
			if len(out) > 0 && out[len(out)-1] != '_' {
				out = append(out, '_')
			}
		default:
			out = append(out, c)
		}
	}
	for len(out) > 0 && out[len(out)-1] == '_' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return base
	}
	return base + "." + string(out)
}
