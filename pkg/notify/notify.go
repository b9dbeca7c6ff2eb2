package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	fcolor "github.com/fatih/color"
)

// MessageType defines the type of notification message.
type MessageType int

const (
	// ErrorType represents an error message (red, with ✗ symbol).
	ErrorType MessageType = iota
	// WarningType represents a warning message (yellow, with ⚠ symbol).
	WarningType
	// ActivityType represents an activity/progress message (default color, with ► symbol).
	ActivityType
	// SuccessType represents a success message (green, with ✔ symbol).
	SuccessType
	// InfoType represents an informational message (blue, with ℹ symbol).
	InfoType
	// DebugType represents a verbose diagnostic message (faint, with · symbol).
	DebugType
	// TitleType represents a title/header message (bold, with an emoji).
	TitleType
)

// Message represents a notification message to be displayed to the user.
type Message struct {
	// Type determines the message styling (color, symbol).
	Type MessageType
	// Content is the main message text to display.
	Content string
	// Emoji is used only for TitleType messages.
	Emoji string
	// Writer is the output destination. If nil, defaults to os.Stdout.
	Writer io.Writer
	// Args are format arguments for Content if it contains format specifiers.
	Args []any
}

// Errorf writes an error message to the writer.
func Errorf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ErrorType, Content: format, Args: args, Writer: writer})
}

// Warningf writes a warning message to the writer.
func Warningf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: WarningType, Content: format, Args: args, Writer: writer})
}

// Activityf writes an activity/progress message to the writer.
func Activityf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ActivityType, Content: format, Args: args, Writer: writer})
}

// Successf writes a success message to the writer.
func Successf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Writer: writer})
}

// Infof writes an informational message to the writer.
func Infof(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: InfoType, Content: format, Args: args, Writer: writer})
}

// Debugf writes a diagnostic message to the writer.
func Debugf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: DebugType, Content: format, Args: args, Writer: writer})
}

// Titlef writes a title/header message with an emoji to the writer.
func Titlef(writer io.Writer, emoji, format string, args ...any) {
	WriteMessage(Message{
		Type:    TitleType,
		Content: fmt.Sprintf(format, args...),
		Emoji:   emoji,
		Writer:  writer,
	})
}

// WriteMessage writes a formatted message based on the message configuration.
//
// For simpler use cases, prefer the convenience functions: Errorf(), Warningf(),
// Successf(), Infof(), Activityf(), Debugf() and Titlef().
func WriteMessage(msg Message) {
	if msg.Writer == nil {
		msg.Writer = os.Stdout
	}

	content := msg.Content
	if len(msg.Args) > 0 {
		content = fmt.Sprintf(msg.Content, msg.Args...)
	}

	config := getMessageConfig(msg.Type)

	if msg.Type == TitleType {
		emoji := msg.Emoji
		if emoji == "" {
			emoji = "ℹ️"
		}

		_, err := config.color.Fprintf(msg.Writer, "%s %s\n", emoji, content)
		handleNotifyError(err)

		return
	}

	content = indentMultilineContent(content, config.symbol)

	_, err := config.color.Fprintf(msg.Writer, "%s%s\n", config.symbol, content)
	handleNotifyError(err)
}

// messageConfig holds the styling configuration for each message type.
type messageConfig struct {
	symbol string
	color  *fcolor.Color
}

func getMessageConfig(msgType MessageType) messageConfig {
	switch msgType {
	case ErrorType:
		return messageConfig{symbol: "✗ ", color: fcolor.New(fcolor.FgRed)}
	case WarningType:
		return messageConfig{symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow)}
	case ActivityType:
		return messageConfig{symbol: "► ", color: fcolor.New(fcolor.Reset)}
	case SuccessType:
		return messageConfig{symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)}
	case InfoType:
		return messageConfig{symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)}
	case DebugType:
		return messageConfig{symbol: "· ", color: fcolor.New(fcolor.Faint)}
	case TitleType:
		return messageConfig{symbol: "", color: fcolor.New(fcolor.Reset, fcolor.Bold)}
	default:
		return messageConfig{symbol: "", color: fcolor.New(fcolor.Reset)}
	}
}

// handleNotifyError reports print failures on stderr rather than returning them.
func handleNotifyError(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "notify: failed to print message: %v\n", err)
	}
}

// indentMultilineContent aligns continuation lines with the first line's text.
func indentMultilineContent(content, symbol string) string {
	if symbol == "" || !strings.Contains(content, "\n") {
		return content
	}

	indent := strings.Repeat(" ", len([]rune(symbol)))
	lines := strings.Split(content, "\n")

	for i := 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}

		lines[i] = indent + lines[i]
	}

	return strings.Join(lines, "\n")
}
