package message

import (
	"net/url"
	"strings"

	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

// DefaultConsoleBaseURL points at the GKE console pod view.
const DefaultConsoleBaseURL = "https://console.cloud.google.com/kubernetes/pod"

const defaultNamespace = "default"

// ConsoleLink builds the deep link to the pod details page:
// <base>/<region>/<cluster-or-project>/<namespace>/<pod>/details[?project=<project>].
func ConsoleLink(baseURL string, event restart.Event) string {
	if baseURL == "" {
		baseURL = DefaultConsoleBaseURL
	}

	scope := event.ClusterID
	if scope == "" {
		scope = event.ProjectID
	}

	link := strings.Join([]string{
		strings.TrimSuffix(baseURL, "/"),
		url.PathEscape(event.Region),
		url.PathEscape(scope),
		url.PathEscape(event.Namespace.OrElse(defaultNamespace)),
		url.PathEscape(event.PodName),
		"details",
	}, "/")

	if event.ProjectID != "" {
		link += "?project=" + url.QueryEscape(event.ProjectID)
	}

	return link
}
