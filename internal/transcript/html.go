// File: internal/transcript/html.go
package transcript

import (
	"bytes"
	"fmt"
	"html"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/kailassh/refine-chat/internal/domain"
)

// markdown renders message bodies. Assistant replies routinely contain
// fenced code blocks and tables, hence GFM.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
)

const htmlHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chat transcript</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #1f2430; }
section.chat { border-top: 1px solid #d9dce3; padding-top: 1rem; margin-top: 2rem; }
article.message { margin: 1rem 0; padding: 0.75rem 1rem; border-radius: 0.5rem; }
article.user { background: #eef2ff; }
article.assistant { background: #f5f6f8; }
article.message header { font-size: 0.8rem; color: #6b7280; margin-bottom: 0.5rem; }
pre { background: #14161c; color: #e6e8ee; padding: 0.75rem; border-radius: 0.4rem; overflow-x: auto; }
</style>
</head>
<body>
`

// RenderHTML renders chats into a standalone HTML document, oldest
// message first within each chat.
func RenderHTML(chats []domain.Chat, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(htmlHeader)
	fmt.Fprintf(&buf, "<p>Exported %s · %d chats</p>\n",
		html.EscapeString(generatedAt.UTC().Format(time.RFC1123)), len(chats))

	for i := range chats {
		if err := renderChat(&buf, &chats[i]); err != nil {
			return nil, err
		}
	}

	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

func renderChat(buf *bytes.Buffer, chat *domain.Chat) error {
	fmt.Fprintf(buf, "<section class=\"chat\">\n<h2>%s</h2>\n", html.EscapeString(chat.Title))

	for i := range chat.Messages {
		message := &chat.Messages[i]
		fmt.Fprintf(buf, "<article class=\"message %s\">\n<header>%s · %s</header>\n",
			html.EscapeString(string(message.Sender)),
			html.EscapeString(string(message.Sender)),
			html.EscapeString(message.Timestamp.UTC().Format(time.RFC1123)))

		if message.IsLoading {
			buf.WriteString("<p><em>reply pending</em></p>\n")
		} else if err := markdown.Convert([]byte(message.Content), buf); err != nil {
			return fmt.Errorf("render message %s: %w", message.ID, err)
		}
		buf.WriteString("</article>\n")
	}

	buf.WriteString("</section>\n")
	return nil
}
