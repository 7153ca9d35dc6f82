package message

// Blocks is a rendered chat message: a sequence of Slack Block Kit blocks.
type Blocks []Block

// Block is a single presentation block.
type Block struct {
	Type     string    `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	Fields   []Text    `json:"fields,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Element is an element of an actions or context block. Text is a *Text for
// buttons and a plain string for context text elements.
type Element struct {
	Type  string `json:"type"`
	Text  any    `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	Style string `json:"style,omitempty"`
}

const (
	blockHeader  = "header"
	blockSection = "section"
	blockActions = "actions"
	blockContext = "context"

	textPlain    = "plain_text"
	textMarkdown = "mrkdwn"

	elementButton = "button"
	stylePrimary  = "primary"
)

func plainText(text string) *Text {
	return &Text{Type: textPlain, Text: text}
}

func markdownText(text string) Text {
	return Text{Type: textMarkdown, Text: text}
}

func headerBlock(title string) Block {
	return Block{Type: blockHeader, Text: plainText(title)}
}

func sectionBlock(text string) Block {
	t := markdownText(text)

	return Block{Type: blockSection, Text: &t}
}

func fieldsBlock(fields []Text) Block {
	return Block{Type: blockSection, Fields: fields}
}

func buttonBlock(title, url string) Block {
	return Block{
		Type: blockActions,
		Elements: []Element{
			{
				Type:  elementButton,
				Text:  plainText(title),
				URL:   url,
				Style: stylePrimary,
			},
		},
	}
}

func contextBlock(text string) Block {
	return Block{
		Type: blockContext,
		Elements: []Element{
			{Type: textMarkdown, Text: text},
		},
	}
}
