package k8s

import (
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"

	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

// toPodSnapshot converts a pod to its domain snapshot. Only containers with a
// reported status are included; the restart count comes from the status.
func toPodSnapshot(pod *corev1.Pod) restart.PodSnapshot {
	specs := make(map[string]*corev1.Container, len(pod.Spec.Containers))
	for i := range pod.Spec.Containers {
		specs[pod.Spec.Containers[i].Name] = &pod.Spec.Containers[i]
	}

	out := restart.PodSnapshot{
		Namespace:   pod.Namespace,
		Name:        pod.Name,
		UID:         string(pod.UID),
		NodeName:    pod.Spec.NodeName,
		Annotations: pod.Annotations,
		Containers:  make([]restart.ContainerSnapshot, 0, len(pod.Status.ContainerStatuses)),
	}

	for i := range pod.Status.ContainerStatuses {
		status := &pod.Status.ContainerStatuses[i]

		container := restart.ContainerSnapshot{
			Name:            status.Name,
			Image:           status.Image,
			RestartCount:    status.RestartCount,
			LastTermination: toTerminationState(status.LastTerminationState.Terminated),
		}

		if spec, ok := specs[status.Name]; ok {
			container.Image = spec.Image
			container.Resources = restart.Resources{
				Limits:   toQuantities(spec.Resources.Limits),
				Requests: toQuantities(spec.Resources.Requests),
			}
		}

		out.Containers = append(out.Containers, container)
	}

	return out
}

func toTerminationState(terminated *corev1.ContainerStateTerminated) restart.Optional[restart.TerminationState] {
	if terminated == nil {
		return restart.None[restart.TerminationState]()
	}

	state := restart.TerminationState{
		ExitCode: terminated.ExitCode,
		Reason:   restart.NonEmpty(terminated.Reason),
		Message:  restart.NonEmpty(terminated.Message),
	}

	if terminated.Signal != 0 {
		state.Signal = restart.Some(terminated.Signal)
	}

	if !terminated.StartedAt.IsZero() {
		state.StartedAt = restart.Some(terminated.StartedAt.UTC())
	}

	if !terminated.FinishedAt.IsZero() {
		state.FinishedAt = restart.Some(terminated.FinishedAt.UTC())
	}

	return restart.Some(state)
}

// toQuantities returns the resource list ordered by resource name.
func toQuantities(list corev1.ResourceList) []restart.ResourceQuantity {
	if len(list) == 0 {
		return nil
	}

	out := make([]restart.ResourceQuantity, 0, len(list))
	for name, quantity := range list {
		out = append(out, restart.ResourceQuantity{
			Name:  string(name),
			Value: quantity.String(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}

func toUsage(podMetrics *metricsv1beta1.PodMetrics, container string) (*restart.Usage, error) {
	for i := range podMetrics.Containers {
		if podMetrics.Containers[i].Name != container {
			continue
		}

		usage := podMetrics.Containers[i].Usage

		return &restart.Usage{
			CPU:    usage.Cpu().String(),
			Memory: usage.Memory().String(),
		}, nil
	}

	return nil, fmt.Errorf("container %q: %w", container, errContainerMetricsNotFound)
}
