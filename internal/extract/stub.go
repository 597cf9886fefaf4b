package extract

import "context"

// StubExtractor returns fixed fields without calling any service. Used
// in local development when EXTRACTOR_URL is unset, mirroring how the
// store falls back to a local endpoint.
type StubExtractor struct {
	Fields map[string]string
	Err    error
}

func (s *StubExtractor) Extract(_ context.Context, _ []string) (map[string]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Fields == nil {
		return map[string]string{}, nil
	}
	return s.Fields, nil
}
