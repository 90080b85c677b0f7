package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	smerrors "github.com/Station-Manager/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	outStdout = "stdout"
	outStderr = "stderr"
)

// output is the destination of a rule.
type output interface {
	write(p []byte, category string, level int) error
	String() string
}

// lockedWriter serialises whole records onto a shared stream.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type streamOutput struct {
	name string
	w    *lockedWriter
}

func (o *streamOutput) write(p []byte, _ string, _ int) error {
	_, err := o.w.Write(p)
	return err
}

func (o *streamOutput) String() string { return ">" + o.name }

// fileOutput writes to a file shared by every rule naming the same path.
type fileOutput struct {
	path     string
	maxBytes int64
	backups  int
	w        io.Writer
}

func (o *fileOutput) write(p []byte, _ string, _ int) error {
	_, err := o.w.Write(p)
	return err
}

func (o *fileOutput) String() string {
	if o.maxBytes > 0 {
		return fmt.Sprintf("%q, %d * %d", o.path, o.maxBytes, o.backups)
	}
	return fmt.Sprintf("%q", o.path)
}

// recordOutput hands records to a function registered with SetRecord.
type recordOutput struct {
	name  string
	param string
	e     *Engine
}

func (o *recordOutput) write(p []byte, category string, level int) error {
	const op smerrors.Op = "engine.recordOutput.write"
	fn := o.e.records[o.name]
	if fn == nil {
		return smerrors.New(op).Msg(errMsgNoRecord + " ($" + o.name + ")")
	}
	return fn(&Msg{Buf: p, Param: o.param, Category: category, Level: level})
}

func (o *recordOutput) String() string {
	if o.param != "" {
		return fmt.Sprintf("$%s, %q", o.name, o.param)
	}
	return "$" + o.name
}

// plainFile is an unrotated append-only file opened on first write.
type plainFile struct {
	path string
	perm os.FileMode
	mu   sync.Mutex
	f    *os.File
}

func (p *plainFile) Write(b []byte) (int, error) {
	const op smerrors.Op = "engine.plainFile.Write"
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.f == nil {
		if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
			return 0, smerrors.New(op).Err(err).Msg(errMsgOpenOutput)
		}
		f, err := os.OpenFile(p.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, p.perm)
		if err != nil {
			return 0, smerrors.New(op).Err(err).Msg(errMsgOpenOutput)
		}
		p.f = f
	}
	return p.f.Write(b)
}

func (p *plainFile) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	return err
}

// newFileWriter returns a lumberjack logger when the rule asks for rotation
// and a plainFile otherwise. lumberjack sizes are whole megabytes.
func newFileWriter(path string, perm os.FileMode, maxBytes int64, backups int) io.WriteCloser {
	if maxBytes <= 0 {
		return &plainFile{path: path, perm: perm}
	}
	const mb = 1 << 20
	sizeMB := int((maxBytes + mb - 1) / mb)
	if sizeMB < 1 {
		sizeMB = 1
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    sizeMB,
		MaxBackups: backups,
	}
}
