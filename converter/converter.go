// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package converter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/entrystore"
)

// ForType returns the stock converter for a content type.
func ForType(t core.ContentType) (entrystore.Converter, error) {
	switch t {
	case core.ContentTypeNotes:
		return Outline{}, nil
	case core.ContentTypeLedger:
		return Block{}, nil
	case core.ContentTypeMusic:
		return Line{}, nil
	case core.ContentTypeImage:
		return Filename{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownType, t)
	}
}

// readLines reads ref after checking ctx and returns its lines with line
// endings removed.
func readLines(ctx context.Context, ref string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}

// flush appends the trimmed joined lines to units if they hold any text.
func flush(units []string, lines []string) []string {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return units
	}
	return append(units, text)
}
