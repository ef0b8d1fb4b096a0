package agent

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// ContinuationPolicy decides whether a pure text reply means the task
// is finished. A reply counts as finished when it is long enough to be
// a substantive summary AND contains a completion marker in the reply's
// language. The heuristic is deliberately fuzzy; early stops and extra
// continuations are accepted trade-offs.
type ContinuationPolicy struct {
	MinSummaryChars int
	ExtraMarkers    []string

	matcher language.Matcher
	vocabs  [][]string
}

// DefaultMinSummaryChars is the length below which a reply is assumed
// to be an interim remark rather than a final summary.
const DefaultMinSummaryChars = 80

// NewContinuationPolicy creates a policy with the given length
// threshold (<= 0 selects the default) and optional extra markers that
// are checked regardless of language.
func NewContinuationPolicy(minSummaryChars int, extraMarkers []string) *ContinuationPolicy {
	if minSummaryChars <= 0 {
		minSummaryChars = DefaultMinSummaryChars
	}
	return &ContinuationPolicy{
		MinSummaryChars: minSummaryChars,
		ExtraMarkers:    extraMarkers,
		matcher: language.NewMatcher([]language.Tag{
			language.English, // index 0 is also the fallback
			language.Korean,
			language.Chinese,
			language.Japanese,
		}),
		vocabs: [][]string{
			{"done", "complete", "completed", "finished", "summary", "in summary"},
			{"완료", "끝났습니다", "마쳤습니다", "요약"},
			{"完成", "已完成", "总结", "完毕"},
			{"完了", "終了", "まとめ"},
		},
	}
}

// NeedsContinuation reports whether the loop should inject a synthetic
// continue message instead of surfacing reply to the user.
func (p *ContinuationPolicy) NeedsContinuation(reply string) bool {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return false
	}
	longEnough := len(trimmed) >= p.MinSummaryChars
	return !(longEnough && p.hasMarker(trimmed))
}

func (p *ContinuationPolicy) hasMarker(reply string) bool {
	lower := strings.ToLower(reply)
	for _, marker := range p.ExtraMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	for _, marker := range p.vocabs[p.vocabIndex(reply)] {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// vocabIndex picks the marker vocabulary for the reply's language.
// Detection failures fall back to English.
func (p *ContinuationPolicy) vocabIndex(reply string) int {
	info := whatlanggo.Detect(reply)
	if !info.IsReliable() {
		return 0
	}
	tag, err := language.Parse(info.Lang.Iso6391())
	if err != nil {
		return 0
	}
	_, index, confidence := p.matcher.Match(tag)
	if confidence == language.No {
		return 0
	}
	return index
}
