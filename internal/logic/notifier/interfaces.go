package notifier

import (
	"context"

	"github.com/inakam/k8s-restart-notify/internal/logic/message"
	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

// Deliverer is the port interface for the chat transport.
// Implementations are provided by adapters in the outbound layer.
type Deliverer interface {
	PostMessageCommand(
		ctx context.Context,
		channel string,
		blocks message.Blocks,
	) error

	// UploadFileCommand shares content as a file in the channel and returns its permalink.
	UploadFileCommand(
		ctx context.Context,
		channel,
		filename,
		title string,
		content []byte,
	) (string, error)
}

// Renderer turns an event into a chat message.
type Renderer interface {
	Render(event restart.Event) message.Blocks
}
