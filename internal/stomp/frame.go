package stomp

import (
	"bytes"
	"fmt"
	"strings"
)

// frame is a single STOMP 1.2 frame: command line, header lines, blank
// line, body, NUL terminator. Bare LF frames (heartbeats) are handled by
// the caller before parsing.
type frame struct {
	command string
	headers [][2]string
	body    []byte
}

func (f *frame) header(name string) string {
	// STOMP: the first occurrence of a repeated header wins.
	for _, h := range f.headers {
		if h[0] == name {
			return h[1]
		}
	}
	return ""
}

func (f *frame) addHeader(name, value string) {
	f.headers = append(f.headers, [2]string{name, value})
}

// escapeHeader applies STOMP 1.2 header escaping. The protocol exempts
// CONNECT/CONNECTED frames, but we never put escapable characters in those.
func escapeHeader(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, ":", `\c`)
	return r.Replace(s)
}

func unescapeHeader(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\c`, ":")
	return r.Replace(s)
}

func (f *frame) marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.command)
	b.WriteByte('\n')
	for _, h := range f.headers {
		b.WriteString(escapeHeader(h[0]))
		b.WriteByte(':')
		b.WriteString(escapeHeader(h[1]))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(f.body)
	b.WriteByte(0)
	return b.Bytes()
}

func parseFrame(data []byte) (*frame, error) {
	// Tolerate leading heartbeat newlines glued to a frame.
	data = bytes.TrimLeft(data, "\r\n")
	if len(data) == 0 {
		return nil, errHeartbeatFrame
	}

	headerEnd := bytes.Index(data, []byte("\n\n"))
	if headerEnd < 0 {
		return nil, fmt.Errorf("malformed frame: missing header terminator")
	}
	head := data[:headerEnd]
	body := data[headerEnd+2:]
	body = bytes.TrimSuffix(body, []byte{0})
	// Servers may append trailing EOLs after the NUL.
	body = bytes.TrimRight(body, "\r\n")
	if i := bytes.IndexByte(body, 0); i >= 0 {
		body = body[:i]
	}

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	f := &frame{command: lines[0]}
	if f.command == "" {
		return nil, fmt.Errorf("malformed frame: empty command")
	}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		f.headers = append(f.headers, [2]string{unescapeHeader(k), unescapeHeader(v)})
	}
	f.body = body
	return f, nil
}

// isHeartbeat reports whether raw websocket data is a STOMP heartbeat
// (one or more EOLs, nothing else).
func isHeartbeat(data []byte) bool {
	return len(bytes.TrimLeft(data, "\r\n")) == 0
}
