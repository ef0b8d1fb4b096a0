package kube

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/MimeLyc/kube-agent/pkg/log"
)

// NewClient builds a Kubernetes clientset. In-cluster configuration is
// tried first; outside a cluster the local kubeconfig is used, with an
// optional context override.
func NewClient(kubeContext string) (kubernetes.Interface, error) {
	cfg, err := rest.InClusterConfig()
	if err == nil {
		log.Info("Using in-cluster Kubernetes configuration")
	} else {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		overrides := &clientcmd.ConfigOverrides{}
		if kubeContext != "" {
			overrides.CurrentContext = kubeContext
		}

		cfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
		log.Info("Using kubeconfig configuration (context=%q)", kubeContext)
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}
	return clientset, nil
}
