/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ipc

// Backend command names.
const (
	CommandTypstCompile      = "typst_compile"
	CommandTypstRender       = "typst_render"
	CommandTypstAutocomplete = "typst_autocomplete"
	CommandFSReadFileBinary  = "fs_read_file_binary"
	CommandFSReadFileText    = "fs_read_file_text"
	CommandFSCreateFile      = "fs_create_file"
	CommandFSCreateFolder    = "fs_create_folder"
	CommandFSDelete          = "fs_delete"
	CommandFSWriteFileText   = "fs_write_file_text"
	CommandFSWriteFileBinary = "fs_write_file_binary"
	CommandFSListDir         = "fs_list_dir"
	CommandClipboardPaste    = "clipboard_paste"
)

// IdempotentCommands lists the commands that may be safely retried.
// It is meant to be passed to bridge.Opts.IdempotentCommands.
var IdempotentCommands = []string{
	CommandTypstRender,
	CommandTypstAutocomplete,
	CommandFSReadFileBinary,
	CommandFSReadFileText,
	CommandFSListDir,
}

type pathArgs struct {
	Path string `json:"path"`
}

type pathContentArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
