// Package chatlog reads the inputs of a conversion: the chat replay log as
// JSON lines, the emoticon catalog and the user color table.
package chatlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/storage"
)

// maxLineBytes bounds a single JSON record.
const maxLineBytes = 4 << 20

var validate = validator.New()

// record is one line of the chat log.
type record struct {
	Offset    *float64          `json:"offset" validate:"required"`
	Author    string            `json:"author"`
	Moderator bool              `json:"moderator"`
	Color     string            `json:"color" validate:"omitempty,hexcolor"`
	Body      string            `json:"body"`
	Fragments []domain.Fragment `json:"fragments"`
}

// Reader streams chat events from a JSON-lines log.
type Reader struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
	total   int
}

// Open prepares path for reading. The log is read once up front to count its
// events so that progress can be reported against a known total.
func Open(ctx context.Context, store storage.Store, path string) (*Reader, error) {
	total, err := count(ctx, store, path)
	if err != nil {
		return nil, err
	}
	rc, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewReader(rc, total), nil
}

// NewReader reads events from rc. total is the expected event count, or -1.
func NewReader(rc io.ReadCloser, total int) *Reader {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{rc: rc, scanner: scanner, total: total}
}

func count(ctx context.Context, store storage.Store, path string) (int, error) {
	rc, err := store.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for scanner.Scan() {
		if !blank(scanner.Bytes()) {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to count events in %s: %w", path, err)
	}
	return n, nil
}

// Total returns the number of events in the log, or -1 if unknown.
func (r *Reader) Total() int {
	return r.total
}

// Next returns the next event, or io.EOF after the last one.
func (r *Reader) Next() (domain.ChatEvent, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if blank(raw) {
			continue
		}
		return r.decode(raw)
	}
	if err := r.scanner.Err(); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("failed to read line %d: %w", r.line+1, err)
	}
	return domain.ChatEvent{}, io.EOF
}

func (r *Reader) decode(raw []byte) (domain.ChatEvent, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("%w: line %d: %v", domain.ErrUnsupportedInput, r.line, err)
	}
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.ChatEvent{}, fmt.Errorf("%w: line %d: field %s failed %q",
				domain.ErrUnsupportedInput, r.line, verrs[0].Field(), verrs[0].Tag())
		}
		return domain.ChatEvent{}, fmt.Errorf("%w: line %d: %v", domain.ErrUnsupportedInput, r.line, err)
	}
	if math.IsNaN(*rec.Offset) || math.IsInf(*rec.Offset, 0) {
		return domain.ChatEvent{}, fmt.Errorf("%w: line %d: offset is not a number", domain.ErrUnsupportedInput, r.line)
	}

	return domain.ChatEvent{
		Offset:    time.Duration(math.Round(*rec.Offset*float64(time.Millisecond))) * time.Microsecond,
		Author:    rec.Author,
		Moderator: rec.Moderator,
		Color:     rec.Color,
		Body:      rec.Body,
		Fragments: rec.Fragments,
	}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.rc.Close()
}

func blank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}
