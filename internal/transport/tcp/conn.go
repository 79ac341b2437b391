package tcp

import (
	"bufio"
	"io"
	"net"
	"strings"
	"time"
)

const maxLineLength = 64 * 1024

// lineConn frames a TCP stream as newline-terminated lines.
type lineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

func newLineConn(conn net.Conn) *lineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	return &lineConn{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

func (that *lineConn) ReadLine() (string, error) {
	if !that.scanner.Scan() {
		if err := that.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	return strings.TrimSuffix(that.scanner.Text(), "\r"), nil
}

func (that *lineConn) WriteLine(line string) error {
	if _, err := that.writer.WriteString(line + "\n"); err != nil {
		return err
	}

	return that.writer.Flush()
}

func (that *lineConn) SetReadDeadline(t time.Time) error {
	return that.conn.SetReadDeadline(t)
}

func (that *lineConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}

func (that *lineConn) Close() error {
	return that.conn.Close()
}
