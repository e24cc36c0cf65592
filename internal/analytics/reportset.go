package analytics

import (
	"errors"
	"fmt"

	"insightreport/pkg/contracts/domain"
)

var (
	// ErrNilReportSet is returned when Aggregate is called without a set.
	ErrNilReportSet = errors.New("analytics: nil report set")
	// ErrNilReport is returned when a nil report is added to a set.
	ErrNilReport = errors.New("analytics: nil report")
	// ErrInvalidReportType is returned for a report whose type is not a declared constant.
	ErrInvalidReportType = errors.New("analytics: invalid report type")
)

// ReportSet groups the classified reports of one session by type.
// Reports of the same type keep their upload order. The zero value is an
// empty set ready to use.
type ReportSet struct {
	byType  map[domain.ReportType][]*domain.ClassifiedReport
	sources []domain.SourceSummary
}

// NewReportSet returns an empty set
func NewReportSet() *ReportSet {
	return &ReportSet{byType: make(map[domain.ReportType][]*domain.ClassifiedReport)}
}

// Add records a report. Unknown reports are kept only as a source summary
// with zero rows and never reach aggregation.
func (s *ReportSet) Add(r *domain.ClassifiedReport) error {
	if r == nil {
		return ErrNilReport
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %d in %s", ErrInvalidReportType, int(r.Type), r.SourceName)
	}
	if s.byType == nil {
		s.byType = make(map[domain.ReportType][]*domain.ClassifiedReport)
	}
	if r.Type == domain.ReportTypeUnknown {
		s.sources = append(s.sources, domain.SourceSummary{Name: r.SourceName, Type: r.Type})
		return nil
	}
	s.byType[r.Type] = append(s.byType[r.Type], r)
	s.sources = append(s.sources, domain.SourceSummary{Name: r.SourceName, Type: r.Type, Rows: r.Len()})
	return nil
}

// AddFailure records a file that could not be decoded at all.
func (s *ReportSet) AddFailure(name string, err error) {
	summary := domain.SourceSummary{Name: name, Type: domain.ReportTypeUnknown}
	if err != nil {
		summary.Error = err.Error()
	}
	s.sources = append(s.sources, summary)
}

// Reports returns the reports of type t in upload order
func (s *ReportSet) Reports(t domain.ReportType) []*domain.ClassifiedReport {
	return s.byType[t]
}

// Has reports whether any report of type t contributed at least one row.
func (s *ReportSet) Has(t domain.ReportType) bool {
	for _, r := range s.byType[t] {
		if r.Len() > 0 {
			return true
		}
	}
	return false
}

// RowCount returns the number of rows across reports of type t.
func (s *ReportSet) RowCount(t domain.ReportType) int {
	n := 0
	for _, r := range s.byType[t] {
		n += r.Len()
	}
	return n
}

// Len returns the number of files recorded, Unknown and failed ones included.
func (s *ReportSet) Len() int {
	return len(s.sources)
}

// Sources returns a copy of the per-file summaries in the order they were added.
func (s *ReportSet) Sources() []domain.SourceSummary {
	out := make([]domain.SourceSummary, len(s.sources))
	copy(out, s.sources)
	return out
}
