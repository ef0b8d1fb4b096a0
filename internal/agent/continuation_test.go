package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsContinuationShortReply(t *testing.T) {
	policy := NewContinuationPolicy(80, nil)
	assert.True(t, policy.NeedsContinuation("Working on it."))
}

func TestNeedsContinuationLongReplyWithoutMarker(t *testing.T) {
	policy := NewContinuationPolicy(80, nil)
	reply := "I inspected the cluster and found several pods that might need attention, so I will now look into each of them."
	assert.True(t, policy.NeedsContinuation(reply))
}

func TestNeedsContinuationShortReplyWithMarker(t *testing.T) {
	policy := NewContinuationPolicy(80, nil)
	// a marker alone is not enough, the reply must read like a summary
	assert.True(t, policy.NeedsContinuation("Done."))
}

func TestCompleteEnglishSummary(t *testing.T) {
	policy := NewContinuationPolicy(80, nil)
	reply := "Summary: the web deployment was restarted, all 3 replicas came back healthy, and the configmap change is now live."
	assert.False(t, policy.NeedsContinuation(reply))
}

func TestCompleteKoreanSummary(t *testing.T) {
	policy := NewContinuationPolicy(80, nil)
	reply := "요약: web 디플로이먼트를 재시작했고 세 개의 레플리카가 모두 정상 상태로 돌아왔습니다. 컨피그맵 변경 사항도 반영되어 작업이 완료되었습니다."
	assert.False(t, policy.NeedsContinuation(reply))
}

func TestCompleteChineseSummary(t *testing.T) {
	policy := NewContinuationPolicy(80, nil)
	reply := "总结:web 部署已重新启动,三个副本全部恢复正常运行,配置更改已经生效,所有请求的操作均已完成,集群状态良好,无需进一步干预。"
	assert.False(t, policy.NeedsContinuation(reply))
}

func TestExtraMarkers(t *testing.T) {
	policy := NewContinuationPolicy(80, []string{"mission accomplished"})
	reply := "Mission accomplished: the repository was cloned, the fix was committed, and the push to the main branch succeeded."
	assert.False(t, policy.NeedsContinuation(reply))
}

func TestEmptyReplyNeverContinues(t *testing.T) {
	policy := NewContinuationPolicy(80, nil)
	assert.False(t, policy.NeedsContinuation(""))
	assert.False(t, policy.NeedsContinuation("   \n"))
}

func TestThresholdIsConfigurable(t *testing.T) {
	strict := NewContinuationPolicy(500, nil)
	reply := "Summary: everything requested is done and the cluster looks healthy again after the restart."
	assert.True(t, strict.NeedsContinuation(reply), "below a 500-char threshold this is not a summary")

	lenient := NewContinuationPolicy(20, nil)
	assert.False(t, lenient.NeedsContinuation(reply))
}

func TestDefaultThreshold(t *testing.T) {
	policy := NewContinuationPolicy(0, nil)
	assert.Equal(t, DefaultMinSummaryChars, policy.MinSummaryChars)

	padding := strings.Repeat("All steps are finished. ", 5)
	assert.False(t, policy.NeedsContinuation(padding))
}
