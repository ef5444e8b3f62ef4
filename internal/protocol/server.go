// Package protocol implements a line-delimited JSON protocol that lets
// another process drive a cache over stdin/stdout.
package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Cmd represents a cache command type.
type Cmd string

const (
	CmdHash       = Cmd("hash")
	CmdGet        = Cmd("get")
	CmdPut        = Cmd("put")
	CmdInvalidate = Cmd("invalidate")
	CmdFlush      = Cmd("flush")
	CmdClose      = Cmd("close")
)

// Cache is the subset of *diskcache.Cache the server needs.
type Cache interface {
	Hash(key string) string
	Path(key string) string
	Lookup(key string) ([]byte, bool, error)
	GetOrComputeRaw(key string, compute func() ([]byte, error)) ([]byte, error)
	InvalidateKey(key string) error
	Flush() error
}

// Request is one line read from the client. Body is base64 in JSON.
type Request struct {
	ID      int64
	Command Cmd
	Key     string `json:",omitempty"`
	Body    []byte `json:",omitempty"`
}

// Response is one line written back to the client.
type Response struct {
	ID            int64  `json:",omitempty"`
	Err           string `json:",omitempty"`
	KnownCommands []Cmd  `json:",omitempty"`
	Miss          bool   `json:",omitempty"`
	Hash          string `json:",omitempty"`
	Path          string `json:",omitempty"`
	Body          []byte `json:",omitempty"`
}

// Server reads requests, applies them to a cache and writes responses.
type Server struct {
	cache   Cache
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

// NewServer creates a server reading requests from r and writing to w.
func NewServer(cache Cache, r io.Reader, w io.Writer) *Server {
	scanner := bufio.NewScanner(r)
	// Request lines carry whole cache values, so allow up to 64MB per line.
	const maxScanTokenSize = 64 * 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	return &Server{
		cache:   cache,
		scanner: scanner,
		writer:  bufio.NewWriter(w),
	}
}

// SendResponse writes one response line and flushes it.
func (s *Server) SendResponse(resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if _, err := s.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	if err := s.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return s.writer.Flush()
}

// SendInitialResponse sends the initial response with capabilities.
func (s *Server) SendInitialResponse() error {
	return s.SendResponse(Response{
		ID:            0,
		KnownCommands: []Cmd{CmdHash, CmdGet, CmdPut, CmdInvalidate, CmdFlush, CmdClose},
	})
}

// ReadRequest reads the next non-empty request line.
// It returns io.EOF once the input is exhausted.
func (s *Server) ReadRequest() (*Request, error) {
	var line string
	for {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read request: %w", err)
			}
			return nil, io.EOF
		}

		line = s.scanner.Text()
		if strings.TrimSpace(line) != "" {
			break
		}
	}

	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w (line: %q)", err, line)
	}
	return &req, nil
}

// HandleRequest processes a single request and sends a response.
// Cache errors are reported in Response.Err and do not stop the server.
func (s *Server) HandleRequest(req *Request) error {
	var resp Response
	resp.ID = req.ID

	switch req.Command {
	case CmdHash:
		resp.Hash = s.cache.Hash(req.Key)

	case CmdGet:
		body, ok, err := s.cache.Lookup(req.Key)
		if err != nil {
			resp.Err = err.Error()
		} else {
			resp.Hash = s.cache.Hash(req.Key)
			resp.Miss = !ok
			if ok {
				resp.Path = s.cache.Path(req.Key)
				resp.Body = body
			}
		}

	case CmdPut:
		// An existing entry wins; Miss reports whether req.Body was stored.
		stored := false
		body, err := s.cache.GetOrComputeRaw(req.Key, func() ([]byte, error) {
			stored = true
			if req.Body == nil {
				return []byte{}, nil
			}
			return req.Body, nil
		})
		if err != nil {
			resp.Err = err.Error()
		} else {
			resp.Hash = s.cache.Hash(req.Key)
			resp.Miss = stored
			resp.Path = s.cache.Path(req.Key)
			resp.Body = body
		}

	case CmdInvalidate:
		if err := s.cache.InvalidateKey(req.Key); err != nil {
			resp.Err = err.Error()
		}

	case CmdFlush:
		if err := s.cache.Flush(); err != nil {
			resp.Err = err.Error()
		}

	case CmdClose:
		// Will exit after sending response

	default:
		resp.Err = fmt.Sprintf("unknown command: %s", req.Command)
	}

	return s.SendResponse(resp)
}

// Run sends the capabilities line and then serves requests until EOF or a
// close command.
func (s *Server) Run() error {
	if err := s.SendInitialResponse(); err != nil {
		return fmt.Errorf("failed to send initial response: %w", err)
	}

	for {
		req, err := s.ReadRequest()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}

		if err := s.HandleRequest(req); err != nil {
			return fmt.Errorf("failed to handle request: %w", err)
		}

		if req.Command == CmdClose {
			break
		}
	}

	return nil
}
