package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

const (
	// DefaultLogMaxChars bounds the inline log tail, in code points.
	DefaultLogMaxChars = 2500

	// MaxLogChars is the largest log tail that keeps the log section within
	// Slack's 3000 character limit for section text.
	MaxLogChars = sectionTextLimit - len(logSectionTitle+codeFence+codeFence)

	sectionTextLimit = 3000
	logSectionTitle  = "*Logs before restart*\n"
	codeFence        = "```"

	unknown     = "Unknown"
	headerTitle = "Container restarted"
	buttonTitle = "Go to GKE Console"
)

// Renderer turns restart events into chat messages. It holds only immutable
// settings; Render has no side effects.
type Renderer struct {
	consoleBaseURL string
	logMaxChars    int
}

// NewRenderer creates a renderer. Empty or non-positive values use the
// defaults; logMaxChars above MaxLogChars is capped.
func NewRenderer(consoleBaseURL string, logMaxChars int) *Renderer {
	if consoleBaseURL == "" {
		consoleBaseURL = DefaultConsoleBaseURL
	}

	if logMaxChars <= 0 {
		logMaxChars = DefaultLogMaxChars
	}

	logMaxChars = min(logMaxChars, MaxLogChars)

	return &Renderer{
		consoleBaseURL: consoleBaseURL,
		logMaxChars:    logMaxChars,
	}
}

// Render builds the message for a restart event.
func (r *Renderer) Render(event restart.Event) Blocks {
	blocks := Blocks{
		headerBlock(headerTitle),
		sectionBlock(identityText(event)),
		fieldsBlock(primaryFields(event)),
		buttonBlock(buttonTitle, ConsoleLink(r.consoleBaseURL, event)),
	}

	blocks = append(blocks, r.logBlocks(event)...)

	return blocks
}

func identityText(event restart.Event) string {
	lines := []string{
		"Namespace: " + formatName(event.Namespace),
		"Pod: " + formatName(restart.NonEmpty(event.PodName)),
		"Container Name: " + formatName(restart.NonEmpty(event.ContainerName)),
		"Image: " + formatName(restart.NonEmpty(event.ContainerImage)),
		"Node: " + formatName(event.NodeName),
		"Reason: " + reason(event),
	}

	return strings.Join(lines, "\n")
}

func reason(event restart.Event) string {
	state, ok := event.LastState.Get()
	if !ok {
		return unknown
	}

	return state.Reason.OrElse(unknown)
}

func primaryFields(event restart.Event) []Text {
	fields := []Text{
		markdownText(fmt.Sprintf("Restart Count: `%d`", event.RestartCount)),
	}

	if state, ok := event.LastState.Get(); ok {
		fields = append(fields, markdownText(fmt.Sprintf("Exit Code: `%d`", state.ExitCode)))

		if signal, ok := state.Signal.Get(); ok {
			fields = append(fields, markdownText(fmt.Sprintf("Signal: `%d`", signal)))
		}

		if finished, ok := state.FinishedAt.Get(); ok {
			fields = append(fields, markdownText("Finished At: `"+finished.UTC().Format(time.RFC3339)+"`"))
		}
	}

	if len(event.Resources.Limits) > 0 {
		fields = append(fields, markdownText("Limits: "+formatQuantities(event.Resources.Limits)))
	}

	if len(event.Resources.Requests) > 0 {
		fields = append(fields, markdownText("Requests: "+formatQuantities(event.Resources.Requests)))
	}

	if usage, ok := event.Usage.Get(); ok {
		fields = append(fields, markdownText(fmt.Sprintf("Usage: `cpu=%s, memory=%s`", usage.CPU, usage.Memory)))
	}

	return fields
}

func (r *Renderer) logBlocks(event restart.Event) []Block {
	var blocks []Block

	if cause, failed := event.Logs.FailureReason(); failed {
		blocks = append(blocks, contextBlock("Failed to fetch logs: "+cause))
	} else if text, _ := event.Logs.Text(); strings.TrimSpace(text) != "" {
		blocks = append(blocks, sectionBlock(logSectionTitle+codeFence+Suffix(text, r.logMaxChars)+codeFence))
	}

	if link, ok := event.LogURL.Get(); ok {
		blocks = append(blocks, buttonBlock("Logs before restart", link))
	}

	return blocks
}

func formatName(name restart.Optional[string]) string {
	v, ok := name.Get()
	if !ok {
		return unknown
	}

	return "`" + v + "`"
}

func formatQuantities(quantities []restart.ResourceQuantity) string {
	parts := make([]string, 0, len(quantities))
	for _, q := range quantities {
		parts = append(parts, q.Name+"="+q.Value)
	}

	return "`" + strings.Join(parts, ", ") + "`"
}
