package kube

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
	ktesting "k8s.io/client-go/testing"
)

func int32Ptr(v int32) *int32 {
	return &v
}

func TestListPods(t *testing.T) {
	client := fake.NewSimpleClientset(
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:              "web-7d4f8b6c9-abcde",
				Namespace:         "default",
				CreationTimestamp: metav1.NewTime(time.Now().Add(-3 * 24 * time.Hour)),
			},
			Status: corev1.PodStatus{
				Phase: corev1.PodRunning,
				ContainerStatuses: []corev1.ContainerStatus{
					{Name: "web", RestartCount: 2},
				},
			},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "worker", Namespace: "default"},
			Status:     corev1.PodStatus{Phase: corev1.PodPending},
		},
	)

	ops := NewOps(client, "default")
	out, err := ops.ListPods(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "web-7d4f8b6c9-abcde")
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "worker")
	assert.Contains(t, out, "Pending")
	assert.Contains(t, out, "3d")
}

func TestListPodsEmpty(t *testing.T) {
	ops := NewOps(fake.NewSimpleClientset(), "staging")
	out, err := ops.ListPods(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, `No pods in namespace "staging"`)
}

func TestGetPod(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "default"},
		Spec: corev1.PodSpec{
			NodeName: "node-1",
			Containers: []corev1.Container{
				{
					Name:  "api",
					Image: "registry.local/api:1.4.2",
					Ports: []corev1.ContainerPort{{ContainerPort: 8080, Protocol: corev1.ProtocolTCP}},
				},
			},
		},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			PodIP: "10.0.0.12",
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "api", Ready: true, RestartCount: 1},
			},
		},
	})

	ops := NewOps(client, "default")
	out, err := ops.GetPod(context.Background(), "api-0")
	require.NoError(t, err)

	assert.Contains(t, out, "Pod: api-0")
	assert.Contains(t, out, "Status: Running")
	assert.Contains(t, out, "Pod IP: 10.0.0.12")
	assert.Contains(t, out, "Node: node-1")
	assert.Contains(t, out, "api: registry.local/api:1.4.2")
	assert.Contains(t, out, "8080/TCP")
	assert.Contains(t, out, "api: Ready, Restarts=1")
}

func TestGetPodNotFound(t *testing.T) {
	ops := NewOps(fake.NewSimpleClientset(), "default")
	_, err := ops.GetPod(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to get pod "ghost"`)
}

func TestGetPodLogs(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "default"},
	})

	ops := NewOps(client, "default")
	out, err := ops.GetPodLogs(context.Background(), "api-0", "", 50)
	require.NoError(t, err)
	// the fake clientset serves a canned body for log subresources
	assert.Contains(t, out, `Pod "api-0" logs (last 50 lines)`)
}

func TestListDeployments(t *testing.T) {
	client := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
		Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(3)},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: 2},
	})

	ops := NewOps(client, "default")
	out, err := ops.ListDeployments(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out, "web")
	assert.Contains(t, out, "READY")
	assert.Contains(t, out, "2")
	assert.Contains(t, out, "3")
}

func TestGetDeployment(t *testing.T) {
	client := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
		Spec: appsv1.DeploymentSpec{
			Replicas: int32Ptr(2),
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RollingUpdateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: "web", Image: "nginx:1.27"}},
				},
			},
		},
		Status: appsv1.DeploymentStatus{
			ReadyReplicas:     2,
			UpdatedReplicas:   2,
			AvailableReplicas: 2,
			Conditions: []appsv1.DeploymentCondition{
				{Type: appsv1.DeploymentAvailable, Status: corev1.ConditionTrue, Reason: "MinimumReplicasAvailable"},
			},
		},
	})

	ops := NewOps(client, "default")
	out, err := ops.GetDeployment(context.Background(), "web")
	require.NoError(t, err)

	assert.Contains(t, out, "Deployment: web")
	assert.Contains(t, out, "Replicas: 2")
	assert.Contains(t, out, "Strategy: RollingUpdate")
	assert.Contains(t, out, "Available: True (MinimumReplicasAvailable)")
	assert.Contains(t, out, "web: nginx:1.27")
}

func TestRestartDeployment(t *testing.T) {
	client := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
	})

	ops := NewOps(client, "default")
	out, err := ops.RestartDeployment(context.Background(), "web")
	require.NoError(t, err)
	assert.Contains(t, out, `Rolling restart of deployment "web" started`)

	var patched bool
	for _, action := range client.Actions() {
		patch, ok := action.(ktesting.PatchAction)
		if !ok {
			continue
		}
		patched = true
		assert.Contains(t, string(patch.GetPatch()), "kubectl.kubernetes.io/restartedAt")
	}
	assert.True(t, patched, "expected a patch action")
}

func TestScaleDeployment(t *testing.T) {
	client := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
		Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(1)},
	})

	ops := NewOps(client, "default")
	out, err := ops.ScaleDeployment(context.Background(), "web", 5)
	require.NoError(t, err)
	assert.Contains(t, out, `Deployment "web" scaled to 5 replicas`)

	dep, err := client.AppsV1().Deployments("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, dep.Spec.Replicas)
	assert.Equal(t, int32(5), *dep.Spec.Replicas)
}

func TestScaleDeploymentNegative(t *testing.T) {
	ops := NewOps(fake.NewSimpleClientset(), "default")
	_, err := ops.ScaleDeployment(context.Background(), "web", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestListServices(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
		Spec: corev1.ServiceSpec{
			Type:      corev1.ServiceTypeClusterIP,
			ClusterIP: "10.96.0.15",
			Ports: []corev1.ServicePort{
				{Port: 80, Protocol: corev1.ProtocolTCP},
				{Port: 443, Protocol: corev1.ProtocolTCP},
			},
		},
	})

	ops := NewOps(client, "default")
	out, err := ops.ListServices(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out, "web")
	assert.Contains(t, out, "ClusterIP")
	assert.Contains(t, out, "10.96.0.15")
	assert.Contains(t, out, "80/TCP, 443/TCP")
}

func TestGetConfigMap(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "app-config", Namespace: "default"},
		Data: map[string]string{
			"LOG_LEVEL": "info",
			"settings":  "a: 1\nb: 2",
		},
	})

	ops := NewOps(client, "default")
	out, err := ops.GetConfigMap(context.Background(), "app-config")
	require.NoError(t, err)

	assert.Contains(t, out, "ConfigMap: app-config")
	assert.Contains(t, out, "LOG_LEVEL:")
	assert.Contains(t, out, "info")
	assert.Contains(t, out, "a: 1")
	assert.Contains(t, out, "b: 2")
}

func TestListSecretsNamesOnly(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "db-credentials", Namespace: "default"},
		Type:       corev1.SecretTypeOpaque,
		Data:       map[string][]byte{"password": []byte("hunter2")},
	})

	ops := NewOps(client, "default")
	out, err := ops.ListSecrets(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out, "db-credentials")
	assert.Contains(t, out, "Opaque")
	assert.NotContains(t, out, "hunter2")
}

func TestGetEventsNewestFirst(t *testing.T) {
	now := time.Now()
	client := fake.NewSimpleClientset(
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "old-event", Namespace: "default"},
			Type:           corev1.EventTypeNormal,
			Reason:         "Scheduled",
			Message:        "Successfully assigned default/web to node-1",
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "web"},
			LastTimestamp:  metav1.NewTime(now.Add(-1 * time.Hour)),
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "new-event", Namespace: "default"},
			Type:           corev1.EventTypeWarning,
			Reason:         "BackOff",
			Message:        "Back-off restarting failed container",
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "web"},
			LastTimestamp:  metav1.NewTime(now),
		},
	)

	ops := NewOps(client, "default")
	out, err := ops.GetEvents(context.Background(), 20)
	require.NoError(t, err)

	backoff := strings.Index(out, "BackOff")
	scheduled := strings.Index(out, "Scheduled")
	require.GreaterOrEqual(t, backoff, 0)
	require.GreaterOrEqual(t, scheduled, 0)
	assert.Less(t, backoff, scheduled, "newest event should come first")
}

func TestGetEventsLimit(t *testing.T) {
	now := time.Now()
	client := fake.NewSimpleClientset()
	for i := 0; i < 5; i++ {
		event := &corev1.Event{
			ObjectMeta:    metav1.ObjectMeta{Name: "event-" + string(rune('a'+i)), Namespace: "default"},
			Type:          corev1.EventTypeNormal,
			Reason:        "Pulled",
			Message:       "Container image pulled",
			LastTimestamp: metav1.NewTime(now.Add(time.Duration(-i) * time.Minute)),
		}
		_, err := client.CoreV1().Events("default").Create(context.Background(), event, metav1.CreateOptions{})
		require.NoError(t, err)
	}

	ops := NewOps(client, "default")
	out, err := ops.GetEvents(context.Background(), 2)
	require.NoError(t, err)

	// header + separator + 2 rows
	assert.Len(t, strings.Split(out, "\n"), 4)
}

func TestGetEventsClipsMultibyteMessage(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Event{
		ObjectMeta:     metav1.ObjectMeta{Name: "korean-event", Namespace: "default"},
		Type:           corev1.EventTypeWarning,
		Reason:         "BackOff",
		Message:        strings.Repeat("재시작", 40),
		InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "web"},
		LastTimestamp:  metav1.NewTime(time.Now()),
	})

	ops := NewOps(client, "default")
	out, err := ops.GetEvents(context.Background(), 20)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(out))
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	// 4 bytes lands inside the second 3-byte Hangul rune
	assert.Equal(t, "한... (truncated)", truncate("한한", 4))
	assert.Equal(t, "한한", truncate("한한", 6))
	assert.Equal(t, "한", clip("한한", 5))
}

func TestAgeFormatting(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "3d", age(metav1.NewTime(now.Add(-3*24*time.Hour))))
	assert.Equal(t, "5h", age(metav1.NewTime(now.Add(-5*time.Hour))))
	assert.Equal(t, "30m", age(metav1.NewTime(now.Add(-30*time.Minute))))
	assert.Equal(t, "0m", age(metav1.NewTime(now)))
}
