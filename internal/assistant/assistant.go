// Package assistant decodes the instruction stream of the coding assistant
// and applies its file updates to a session working tree.
package assistant

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/kurobon/nexusvc/internal/queue"
)

// UpdateFileTool is the only tool the assistant may call.
const UpdateFileTool = "update_file"

var (
	ErrInvalidJSON   = errors.New("assistant: invalid JSON")
	ErrUnknownTool   = errors.New("assistant: unknown tool")
	ErrMissingField  = errors.New("assistant: missing required field")
	ErrNotFileList   = errors.New("assistant: expected an array of files")
	ErrEmptyFilename = errors.New("assistant: empty filename")
)

// ToolCall is a function call emitted by the assistant.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

// Chunk is one element of the assistant stream.
type Chunk struct {
	Text     string    `json:"text,omitempty"`
	ToolCall *ToolCall `json:"toolCall,omitempty"`
}

// FileUpdate is the payload of an update_file call and one entry of a
// shaped project.
type FileUpdate struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	Reasoning string `json:"reasoning"`
}

// Applier receives file updates. *git.Engine satisfies it.
type Applier interface {
	ApplyUpdateFile(name, content string) (*queue.Future[struct{}], error)
}

// DecodeChunk parses one JSON chunk of the stream.
func DecodeChunk(raw []byte) (Chunk, error) {
	if !gjson.ValidBytes(raw) {
		return Chunk{}, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(raw)
	c := Chunk{Text: doc.Get("text").String()}
	if tc := doc.Get("toolCall"); tc.IsObject() {
		c.ToolCall = &ToolCall{
			ID:   tc.Get("id").String(),
			Name: tc.Get("name").String(),
			Args: tc.Get("args").Raw,
		}
	}
	return c, nil
}

// ParseUpdate decodes the arguments of an update_file call. All three
// fields are required.
func ParseUpdate(tc ToolCall) (FileUpdate, error) {
	if tc.Name != UpdateFileTool {
		return FileUpdate{}, fmt.Errorf("%w: %q", ErrUnknownTool, tc.Name)
	}
	if !gjson.Valid(tc.Args) {
		return FileUpdate{}, ErrInvalidJSON
	}
	return decodeUpdate(gjson.Parse(tc.Args), true)
}

// ParseProject decodes a project-shaping response: a JSON array of
// {filename, content, reasoning}. Reasoning may be omitted.
func ParseProject(raw []byte) ([]FileUpdate, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, ErrNotFileList
	}
	var (
		files []FileUpdate
		err   error
	)
	doc.ForEach(func(_, v gjson.Result) bool {
		var u FileUpdate
		u, err = decodeUpdate(v, false)
		if err != nil {
			return false
		}
		files = append(files, u)
		return true
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func decodeUpdate(v gjson.Result, reasoningRequired bool) (FileUpdate, error) {
	required := []string{"filename", "content"}
	if reasoningRequired {
		required = append(required, "reasoning")
	}
	for _, field := range required {
		if !v.Get(field).Exists() {
			return FileUpdate{}, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	u := FileUpdate{
		Filename:  strings.TrimSpace(v.Get("filename").String()),
		Content:   v.Get("content").String(),
		Reasoning: v.Get("reasoning").String(),
	}
	if u.Filename == "" {
		return FileUpdate{}, ErrEmptyFilename
	}
	return u, nil
}

// Role says who produced a Message.
type Role string

const (
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Message is one entry of the chat transcript produced by Consume.
type Message struct {
	Role    Role   `json:"role"`
	Text    string `json:"text"`
	File    string `json:"file,omitempty"`
	Failure bool   `json:"failure,omitempty"`
}

// Confirmation is the system message shown after an update is applied.
func Confirmation(u FileUpdate) string {
	return fmt.Sprintf("✅ Applied change to '%s': %s", u.Filename, u.Reasoning)
}

// Consumer applies a stream of chunks to a working tree.
type Consumer struct {
	Applier Applier
	Logger  *log.Logger
}

// NewConsumer returns a Consumer writing through a.
func NewConsumer(a Applier, logger *log.Logger) *Consumer {
	if logger == nil {
		logger = log.Default()
	}
	return &Consumer{Applier: a, Logger: logger.WithPrefix("assistant")}
}

// Consume reads newline-delimited JSON chunks from r and applies them like
// ConsumeChunks. A line that is not valid JSON stops the stream.
func (c *Consumer) Consume(ctx context.Context, r io.Reader) ([]Message, error) {
	var t transcript
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		chunk, err := DecodeChunk([]byte(line))
		if err != nil {
			return t.messages(), err
		}
		if err := c.handle(ctx, &t, chunk); err != nil {
			return t.messages(), err
		}
	}
	if err := sc.Err(); err != nil {
		return t.messages(), err
	}
	return t.messages(), nil
}

// ConsumeChunks drains chunks in order until the channel is closed or ctx
// is done. Text is accumulated into a single model message; every
// update_file call is applied and confirmed with a system message. A
// malformed tool call is reported in the transcript and does not stop the
// stream.
func (c *Consumer) ConsumeChunks(ctx context.Context, chunks <-chan Chunk) ([]Message, error) {
	var t transcript
	for {
		select {
		case <-ctx.Done():
			return t.messages(), ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return t.messages(), nil
			}
			if err := c.handle(ctx, &t, chunk); err != nil {
				return t.messages(), err
			}
		}
	}
}

type transcript struct {
	text    strings.Builder
	applied []Message
}

func (t *transcript) messages() []Message {
	if t.text.Len() == 0 {
		return t.applied
	}
	return append([]Message{{Role: RoleModel, Text: t.text.String()}}, t.applied...)
}

// handle fails only when ctx is done.
func (c *Consumer) handle(ctx context.Context, t *transcript, chunk Chunk) error {
	t.text.WriteString(chunk.Text)
	if chunk.ToolCall == nil {
		return nil
	}
	msg, err := c.apply(ctx, *chunk.ToolCall)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("tool call rejected", "id", chunk.ToolCall.ID, "err", err)
	}
	t.applied = append(t.applied, msg)
	return nil
}

func (c *Consumer) apply(ctx context.Context, tc ToolCall) (Message, error) {
	u, err := ParseUpdate(tc)
	if err != nil {
		return Message{Role: RoleSystem, Text: err.Error(), Failure: true}, err
	}
	if err := c.write(ctx, u); err != nil {
		return Message{Role: RoleSystem, Text: err.Error(), File: u.Filename, Failure: true}, err
	}
	c.Logger.Info("update applied", "file", u.Filename)
	return Message{Role: RoleSystem, Text: Confirmation(u), File: u.Filename}, nil
}

func (c *Consumer) write(ctx context.Context, u FileUpdate) error {
	f, err := c.Applier.ApplyUpdateFile(u.Filename, u.Content)
	if err != nil {
		return err
	}
	_, err = f.Wait(ctx)
	return err
}

// ApplyProject writes every file of a shaped project, in filename order,
// and returns the names written.
func (c *Consumer) ApplyProject(ctx context.Context, files []FileUpdate) ([]string, error) {
	sorted := append([]FileUpdate(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })
	written := make([]string, 0, len(sorted))
	for _, u := range sorted {
		if err := c.write(ctx, u); err != nil {
			return written, fmt.Errorf("apply %s: %w", u.Filename, err)
		}
		written = append(written, u.Filename)
	}
	return written, nil
}

// Context renders the working tree the way the assistant receives it:
// one delimited section per file, in name order.
func Context(files map[string]string) string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	sections := make([]string, 0, len(names))
	for _, name := range names {
		sections = append(sections, fmt.Sprintf("--- FILE: %s ---\n%s\n--- END FILE ---", name, files[name]))
	}
	return strings.Join(sections, "\n")
}
