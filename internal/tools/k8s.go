package tools

import (
	"context"
	"encoding/json"

	"github.com/MimeLyc/kube-agent/internal/kube"
)

// RegisterKubeTools adds the cluster management tools backed by ops.
func RegisterKubeTools(registry *Registry, ops *kube.Ops) {
	registry.MustRegister(Descriptor{
		Name:        "k8s_list_pods",
		Description: "List all pods in the managed namespace with status, restarts, and age.",
		Parameters:  emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListPods(ctx)
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_get_pod",
		Description: "Get detailed information about a specific pod: containers, statuses, conditions, IP, and node.",
		Parameters: objectSchema(map[string]property{
			"name": {Type: "string", Description: "Name of the pod"},
		}, "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.GetPod(ctx, args.String("name", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_get_pod_logs",
		Description: "Get recent log lines from a pod, optionally from a specific container.",
		Parameters: objectSchema(map[string]property{
			"name":      {Type: "string", Description: "Name of the pod"},
			"container": {Type: "string", Description: "Container name (optional for single-container pods)"},
			"tail":      {Type: "integer", Description: "Number of lines from the end of the logs (default 100)"},
		}, "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.GetPodLogs(ctx, args.String("name", ""), args.String("container", ""), args.Int("tail", 100))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_list_deployments",
		Description: "List all deployments in the managed namespace with ready and desired replicas.",
		Parameters:  emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListDeployments(ctx)
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_get_deployment",
		Description: "Get detailed information about a specific deployment: replicas, strategy, conditions, and containers.",
		Parameters: objectSchema(map[string]property{
			"name": {Type: "string", Description: "Name of the deployment"},
		}, "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.GetDeployment(ctx, args.String("name", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_restart_deployment",
		Description: "Trigger a rolling restart of a deployment, like kubectl rollout restart.",
		Parameters: objectSchema(map[string]property{
			"name": {Type: "string", Description: "Name of the deployment"},
		}, "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.RestartDeployment(ctx, args.String("name", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_scale_deployment",
		Description: "Scale a deployment to a given number of replicas.",
		Parameters: objectSchema(map[string]property{
			"name":     {Type: "string", Description: "Name of the deployment"},
			"replicas": {Type: "integer", Description: "Desired replica count"},
		}, "name", "replicas"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ScaleDeployment(ctx, args.String("name", ""), args.Int("replicas", 0))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_list_services",
		Description: "List all services in the managed namespace with type, cluster IP, and ports.",
		Parameters:  emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListServices(ctx)
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_list_configmaps",
		Description: "List all configmaps in the managed namespace.",
		Parameters:  emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListConfigMaps(ctx)
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_get_configmap",
		Description: "Get the data of a specific configmap. Long values are truncated.",
		Parameters: objectSchema(map[string]property{
			"name": {Type: "string", Description: "Name of the configmap"},
		}, "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.GetConfigMap(ctx, args.String("name", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_list_secrets",
		Description: "List secret names and types in the managed namespace. Secret values are never shown.",
		Parameters:  emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListSecrets(ctx)
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "k8s_get_events",
		Description: "Get recent events in the managed namespace, newest first.",
		Parameters: objectSchema(map[string]property{
			"limit": {Type: "integer", Description: "Maximum number of events to return (default 20)"},
		}),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.GetEvents(ctx, args.Int("limit", 20))
		},
	})
}

// property is one parameter in a tool's JSON schema.
type property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Items       *Items   `json:"items,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Items declares the element type of array parameters.
type Items struct {
	Type string `json:"type"`
}

var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// objectSchema builds a JSON schema for an object with the given
// properties and required keys.
func objectSchema(props map[string]property, required ...string) json.RawMessage {
	doc := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return raw
}
