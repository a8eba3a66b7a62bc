package chatlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/storage"
	"github.com/nfrund/chatsubs/internal/textnorm"
)

// LoadCatalog reads an emoticon catalog: one name per line, blank lines and
// lines starting with # are ignored. An empty path yields an empty catalog.
func LoadCatalog(ctx context.Context, store storage.Store, path string) (*textnorm.Catalog, error) {
	if path == "" {
		return textnorm.NewCatalog(nil), nil
	}
	data, err := store.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse emoticon catalog %s: %w", path, err)
	}
	return textnorm.NewCatalog(names), nil
}

// LoadUserColors reads a JSON object mapping user names to #rrggbb colors.
// An empty path yields an empty table.
func LoadUserColors(ctx context.Context, store storage.Store, path string) (*textnorm.UserColors, error) {
	if path == "" {
		return textnorm.NewUserColors(nil), nil
	}
	data, err := store.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	colors := make(map[string]string)
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("%w: user colors %s: %v", domain.ErrUnsupportedInput, path, err)
	}
	for name, color := range colors {
		if err := validate.Var(color, "hexcolor"); err != nil {
			return nil, fmt.Errorf("%w: user colors %s: %q has invalid color %q",
				domain.ErrUnsupportedInput, path, name, color)
		}
	}
	return textnorm.NewUserColors(colors), nil
}
