// Package kube implements the cluster capability adapter. All operations
// are scoped to a single namespace and render kubectl-style tables, which
// the model digests better than raw JSON.
package kube

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
)

// Ops provides namespaced read and mutate operations over a cluster.
type Ops struct {
	client    kubernetes.Interface
	namespace string
}

// NewOps creates a cluster adapter for the given namespace.
func NewOps(client kubernetes.Interface, namespace string) *Ops {
	return &Ops{client: client, namespace: namespace}
}

// Namespace returns the namespace all operations are scoped to.
func (o *Ops) Namespace() string {
	return o.namespace
}

// ListPods lists all pods with status, restart count, and age.
func (o *Ops) ListPods(ctx context.Context) (string, error) {
	pods, err := o.client.CoreV1().Pods(o.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list pods: %w", err)
	}
	if len(pods.Items) == 0 {
		return fmt.Sprintf("No pods in namespace %q.", o.namespace), nil
	}

	lines := []string{
		fmt.Sprintf("%-50s %-12s %-10s %-8s", "NAME", "STATUS", "RESTARTS", "AGE"),
		strings.Repeat("-", 80),
	}
	for _, pod := range pods.Items {
		restarts := int32(0)
		for _, cs := range pod.Status.ContainerStatuses {
			restarts += cs.RestartCount
		}
		lines = append(lines, fmt.Sprintf("%-50s %-12s %-10d %-8s",
			pod.Name, string(pod.Status.Phase), restarts, age(pod.CreationTimestamp)))
	}
	return strings.Join(lines, "\n"), nil
}

// GetPod returns the details of one pod.
func (o *Ops) GetPod(ctx context.Context, name string) (string, error) {
	pod, err := o.client.CoreV1().Pods(o.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get pod %q: %w", name, err)
	}

	lines := []string{
		fmt.Sprintf("Pod: %s", pod.Name),
		fmt.Sprintf("  Namespace: %s", o.namespace),
		fmt.Sprintf("  Status: %s", string(pod.Status.Phase)),
	}
	if pod.Status.PodIP != "" {
		lines = append(lines, fmt.Sprintf("  Pod IP: %s", pod.Status.PodIP))
	}
	if pod.Spec.NodeName != "" {
		lines = append(lines, fmt.Sprintf("  Node: %s", pod.Spec.NodeName))
	}

	if len(pod.Spec.Containers) > 0 {
		lines = append(lines, "  Containers:")
		for _, c := range pod.Spec.Containers {
			lines = append(lines, fmt.Sprintf("    - %s: %s", c.Name, c.Image))
			if len(c.Ports) > 0 {
				ports := make([]string, 0, len(c.Ports))
				for _, p := range c.Ports {
					proto := string(p.Protocol)
					if proto == "" {
						proto = "TCP"
					}
					ports = append(ports, fmt.Sprintf("%d/%s", p.ContainerPort, proto))
				}
				lines = append(lines, fmt.Sprintf("      Ports: %s", strings.Join(ports, ", ")))
			}
		}
	}

	if len(pod.Status.ContainerStatuses) > 0 {
		lines = append(lines, "  Container Statuses:")
		for _, cs := range pod.Status.ContainerStatuses {
			ready := "NotReady"
			if cs.Ready {
				ready = "Ready"
			}
			lines = append(lines, fmt.Sprintf("    - %s: %s, Restarts=%d", cs.Name, ready, cs.RestartCount))
		}
	}

	if len(pod.Status.Conditions) > 0 {
		lines = append(lines, "  Conditions:")
		for _, cond := range pod.Status.Conditions {
			lines = append(lines, fmt.Sprintf("    - %s: %s", string(cond.Type), string(cond.Status)))
		}
	}

	return strings.Join(lines, "\n"), nil
}

// GetPodLogs returns the last tail lines of a pod's logs, optionally for
// one container.
func (o *Ops) GetPodLogs(ctx context.Context, name, container string, tail int) (string, error) {
	if tail <= 0 {
		tail = 100
	}
	tailLines := int64(tail)
	opts := &corev1.PodLogOptions{TailLines: &tailLines}
	if container != "" {
		opts.Container = container
	}

	raw, err := o.client.CoreV1().Pods(o.namespace).GetLogs(name, opts).Do(ctx).Raw()
	if err != nil {
		return "", fmt.Errorf("failed to get logs of pod %q: %w", name, err)
	}
	if len(raw) == 0 {
		return fmt.Sprintf("Logs of pod %q are empty.", name), nil
	}
	return fmt.Sprintf("--- Pod %q logs (last %d lines) ---\n%s", name, tail, string(raw)), nil
}

// ListDeployments lists all deployments with ready/total replicas and age.
func (o *Ops) ListDeployments(ctx context.Context) (string, error) {
	deps, err := o.client.AppsV1().Deployments(o.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list deployments: %w", err)
	}
	if len(deps.Items) == 0 {
		return fmt.Sprintf("No deployments in namespace %q.", o.namespace), nil
	}

	lines := []string{
		fmt.Sprintf("%-45s %-10s %-10s %-8s", "NAME", "READY", "REPLICAS", "AGE"),
		strings.Repeat("-", 73),
	}
	for _, dep := range deps.Items {
		replicas := int32(0)
		if dep.Spec.Replicas != nil {
			replicas = *dep.Spec.Replicas
		}
		lines = append(lines, fmt.Sprintf("%-45s %-10d %-10d %-8s",
			dep.Name, dep.Status.ReadyReplicas, replicas, age(dep.CreationTimestamp)))
	}
	return strings.Join(lines, "\n"), nil
}

// GetDeployment returns the details of one deployment.
func (o *Ops) GetDeployment(ctx context.Context, name string) (string, error) {
	dep, err := o.client.AppsV1().Deployments(o.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get deployment %q: %w", name, err)
	}

	replicas := int32(0)
	if dep.Spec.Replicas != nil {
		replicas = *dep.Spec.Replicas
	}

	lines := []string{
		fmt.Sprintf("Deployment: %s", dep.Name),
		fmt.Sprintf("  Namespace: %s", o.namespace),
		fmt.Sprintf("  Replicas: %d", replicas),
	}
	if dep.Spec.Strategy.Type != "" {
		lines = append(lines, fmt.Sprintf("  Strategy: %s", string(dep.Spec.Strategy.Type)))
	}
	lines = append(lines,
		fmt.Sprintf("  Ready Replicas: %d", dep.Status.ReadyReplicas),
		fmt.Sprintf("  Updated Replicas: %d", dep.Status.UpdatedReplicas),
		fmt.Sprintf("  Available Replicas: %d", dep.Status.AvailableReplicas),
	)

	if len(dep.Status.Conditions) > 0 {
		lines = append(lines, "  Conditions:")
		for _, cond := range dep.Status.Conditions {
			lines = append(lines, fmt.Sprintf("    - %s: %s (%s)", string(cond.Type), string(cond.Status), cond.Reason))
		}
	}

	if len(dep.Spec.Template.Spec.Containers) > 0 {
		lines = append(lines, "  Containers:")
		for _, c := range dep.Spec.Template.Spec.Containers {
			lines = append(lines, fmt.Sprintf("    - %s: %s", c.Name, c.Image))
		}
	}

	return strings.Join(lines, "\n"), nil
}

// RestartDeployment triggers a rolling restart by patching the restartedAt
// annotation, the same way kubectl rollout restart does.
func (o *Ops) RestartDeployment(ctx context.Context, name string) (string, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	patch := fmt.Sprintf(`{"spec":{"template":{"metadata":{"annotations":{"kubectl.kubernetes.io/restartedAt":%q}}}}}`, now)

	_, err := o.client.AppsV1().Deployments(o.namespace).Patch(ctx, name,
		types.StrategicMergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to restart deployment %q: %w", name, err)
	}
	return fmt.Sprintf("Rolling restart of deployment %q started (restartedAt: %s).", name, now), nil
}

// ScaleDeployment patches the replica count of a deployment.
func (o *Ops) ScaleDeployment(ctx context.Context, name string, replicas int) (string, error) {
	if replicas < 0 {
		return "", fmt.Errorf("replicas must not be negative: %d", replicas)
	}
	patch := fmt.Sprintf(`{"spec":{"replicas":%d}}`, replicas)

	_, err := o.client.AppsV1().Deployments(o.namespace).Patch(ctx, name,
		types.StrategicMergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to scale deployment %q: %w", name, err)
	}
	return fmt.Sprintf("Deployment %q scaled to %d replicas.", name, replicas), nil
}

// ListServices lists all services with type, cluster IP, and ports.
func (o *Ops) ListServices(ctx context.Context) (string, error) {
	svcs, err := o.client.CoreV1().Services(o.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list services: %w", err)
	}
	if len(svcs.Items) == 0 {
		return fmt.Sprintf("No services in namespace %q.", o.namespace), nil
	}

	lines := []string{
		fmt.Sprintf("%-40s %-15s %-18s %-30s", "NAME", "TYPE", "CLUSTER-IP", "PORTS"),
		strings.Repeat("-", 103),
	}
	for _, svc := range svcs.Items {
		ports := make([]string, 0, len(svc.Spec.Ports))
		for _, p := range svc.Spec.Ports {
			proto := string(p.Protocol)
			if proto == "" {
				proto = "TCP"
			}
			ports = append(ports, fmt.Sprintf("%d/%s", p.Port, proto))
		}
		lines = append(lines, fmt.Sprintf("%-40s %-15s %-18s %-30s",
			svc.Name, string(svc.Spec.Type), svc.Spec.ClusterIP, strings.Join(ports, ", ")))
	}
	return strings.Join(lines, "\n"), nil
}

// ListConfigMaps lists all configmaps with their data key counts.
func (o *Ops) ListConfigMaps(ctx context.Context) (string, error) {
	cms, err := o.client.CoreV1().ConfigMaps(o.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list configmaps: %w", err)
	}
	if len(cms.Items) == 0 {
		return fmt.Sprintf("No configmaps in namespace %q.", o.namespace), nil
	}

	lines := []string{
		fmt.Sprintf("%-50s %-12s %-8s", "NAME", "DATA KEYS", "AGE"),
		strings.Repeat("-", 70),
	}
	for _, cm := range cms.Items {
		lines = append(lines, fmt.Sprintf("%-50s %-12d %-8s",
			cm.Name, len(cm.Data), age(cm.CreationTimestamp)))
	}
	return strings.Join(lines, "\n"), nil
}

// GetConfigMap returns the data of one configmap. Long values are cut off
// at 500 characters per key.
func (o *Ops) GetConfigMap(ctx context.Context, name string) (string, error) {
	cm, err := o.client.CoreV1().ConfigMaps(o.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get configmap %q: %w", name, err)
	}

	lines := []string{
		fmt.Sprintf("ConfigMap: %s", cm.Name),
		fmt.Sprintf("  Namespace: %s", o.namespace),
	}
	if len(cm.Data) == 0 {
		lines = append(lines, "  Data: (empty)")
		return strings.Join(lines, "\n"), nil
	}

	keys := make([]string, 0, len(cm.Data))
	for key := range cm.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines = append(lines, "  Data:")
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("    %s:", key))
		for _, valueLine := range strings.Split(truncate(cm.Data[key], 500), "\n") {
			lines = append(lines, "      "+valueLine)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// ListSecrets lists secret names and types only. Secret data is never
// rendered.
func (o *Ops) ListSecrets(ctx context.Context) (string, error) {
	secrets, err := o.client.CoreV1().Secrets(o.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list secrets: %w", err)
	}
	if len(secrets.Items) == 0 {
		return fmt.Sprintf("No secrets in namespace %q.", o.namespace), nil
	}

	lines := []string{
		fmt.Sprintf("%-50s %-35s %-8s", "NAME", "TYPE", "AGE"),
		strings.Repeat("-", 93),
	}
	for _, secret := range secrets.Items {
		secretType := string(secret.Type)
		if secretType == "" {
			secretType = string(corev1.SecretTypeOpaque)
		}
		lines = append(lines, fmt.Sprintf("%-50s %-35s %-8s",
			secret.Name, secretType, age(secret.CreationTimestamp)))
	}
	return strings.Join(lines, "\n"), nil
}

// GetEvents returns the most recent events, newest first.
func (o *Ops) GetEvents(ctx context.Context, limit int) (string, error) {
	if limit <= 0 {
		limit = 20
	}

	events, err := o.client.CoreV1().Events(o.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list events: %w", err)
	}
	if len(events.Items) == 0 {
		return fmt.Sprintf("No events in namespace %q.", o.namespace), nil
	}

	items := events.Items
	sort.Slice(items, func(i, j int) bool {
		return eventTime(items[i]).After(eventTime(items[j]))
	})
	if len(items) > limit {
		items = items[:limit]
	}

	lines := []string{
		fmt.Sprintf("%-10s %-20s %-35s %-50s", "TYPE", "REASON", "OBJECT", "MESSAGE"),
		strings.Repeat("-", 115),
	}
	for _, event := range items {
		eventType := event.Type
		if eventType == "" {
			eventType = corev1.EventTypeNormal
		}
		obj := ""
		if event.InvolvedObject.Kind != "" || event.InvolvedObject.Name != "" {
			obj = fmt.Sprintf("%s/%s", event.InvolvedObject.Kind, event.InvolvedObject.Name)
		}
		message := clip(event.Message, 50)
		lines = append(lines, fmt.Sprintf("%-10s %-20s %-35s %-50s",
			eventType, event.Reason, obj, message))
	}
	return strings.Join(lines, "\n"), nil
}

func eventTime(event corev1.Event) time.Time {
	if !event.LastTimestamp.IsZero() {
		return event.LastTimestamp.Time
	}
	return event.CreationTimestamp.Time
}
