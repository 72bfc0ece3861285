/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ipc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// FileType is a type of the project tree entry.
type FileType string

// File types.
const (
	FileTypeFile      FileType = "file"
	FileTypeDirectory FileType = "directory"
)

// FileItem is an entry of a project directory.
type FileItem struct {
	Name string   `json:"name"`
	Type FileType `json:"type"`
}

// IsDir reports whether the item is a directory.
func (fi FileItem) IsDir() bool {
	return fi.Type == FileTypeDirectory
}

// byteArray is file content sent as a JSON array of numbers.
// A base64 string is accepted when decoding.
type byteArray []byte

// pathBytesArgs is the argument object of binary writes.
type pathBytesArgs struct {
	Path    string    `json:"path"`
	Content byteArray `json:"content"`
}

func (ba byteArray) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(ba)*4)
	buf = append(buf, '[')
	for i, b := range ba {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(b), 10)
	}
	return append(buf, ']'), nil
}

func (ba *byteArray) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return err
		}
		*ba = decoded
		return nil
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	res := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return fmt.Errorf("byte value %d at index %d is out of range", n, i)
		}
		res[i] = byte(n)
	}
	*ba = res
	return nil
}

// ReadFileBinary reads the file at the project-relative path.
func (b *Backend) ReadFileBinary(ctx context.Context, path string) ([]byte, error) {
	var data byteArray
	if err := b.invoker.Invoke(ctx, CommandFSReadFileBinary, pathArgs{Path: path}, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadFileText reads the text file at the project-relative path.
func (b *Backend) ReadFileText(ctx context.Context, path string) (string, error) {
	var text string
	err := b.invoker.Invoke(ctx, CommandFSReadFileText, pathArgs{Path: path}, &text)
	return text, err
}

// CreateFile creates an empty file.
func (b *Backend) CreateFile(ctx context.Context, path string) error {
	return b.invoker.Invoke(ctx, CommandFSCreateFile, pathArgs{Path: path}, nil)
}

// CreateFolder creates a directory.
func (b *Backend) CreateFolder(ctx context.Context, path string) error {
	return b.invoker.Invoke(ctx, CommandFSCreateFolder, pathArgs{Path: path}, nil)
}

// Delete removes a file or a directory.
func (b *Backend) Delete(ctx context.Context, path string) error {
	return b.invoker.Invoke(ctx, CommandFSDelete, pathArgs{Path: path}, nil)
}

// WriteFileText replaces the contents of the text file.
func (b *Backend) WriteFileText(ctx context.Context, path, content string) error {
	return b.invoker.Invoke(ctx, CommandFSWriteFileText, pathContentArgs{Path: path, Content: content}, nil)
}

// WriteFileBinary replaces the contents of the file with data.
func (b *Backend) WriteFileBinary(ctx context.Context, path string, data []byte) error {
	return b.invoker.Invoke(ctx, CommandFSWriteFileBinary, pathBytesArgs{Path: path, Content: data}, nil)
}

// ListDir lists the directory at the project-relative path.
func (b *Backend) ListDir(ctx context.Context, path string) ([]FileItem, error) {
	var items []FileItem
	if err := b.invoker.Invoke(ctx, CommandFSListDir, pathArgs{Path: path}, &items); err != nil {
		return nil, err
	}
	return items, nil
}
