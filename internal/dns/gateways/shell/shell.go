// Package shell is the operator's interactive console for adding and
// inspecting records while the server runs.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/haukened/ttl-dns/internal/dns/common/clock"
	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// Prompt is printed before each command is read.
const Prompt = "DNS> "

// RecordService is the operator contract the shell drives.
type RecordService interface {
	AddRecord(name, typeStr string, ttl uint32, data string) error
	GetRecords(name, typeStr string) ([]domain.Record, error)
}

// Shell reads operator commands line by line and applies them to a
// RecordService.
type Shell struct {
	svc    RecordService
	in     io.Reader
	out    io.Writer
	clock  clock.Clock
	logger log.Logger
}

// Options configures a Shell. Clock and Logger default to the real clock
// and a no-op logger.
type Options struct {
	Service RecordService
	In      io.Reader
	Out     io.Writer
	Clock   clock.Clock
	Logger  log.Logger
}

// New creates a Shell reading from In and writing to Out.
func New(opts Options) *Shell {
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Shell{
		svc:    opts.Service,
		in:     opts.In,
		out:    opts.Out,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
}

// Run reads commands until quit, EOF or ctx is done. Command failures are
// printed and never end the session.
func (s *Shell) Run(ctx context.Context) error {
	s.println("DNS Server Interactive Mode")
	s.println("Type 'help' for available commands")

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		s.printf("%s", Prompt)
		select {
		case <-ctx.Done():
			s.println("")
			s.println("Exiting interactive mode")
			return nil
		case err := <-readErr:
			s.println("")
			s.println("Exiting interactive mode")
			return err
		case line := <-lines:
			if !s.Execute(line) {
				s.println("Exiting interactive mode")
				return nil
			}
		}
	}
}

// Execute runs one command line and reports whether the session continues.
func (s *Shell) Execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	cmd, rest := splitWord(line)
	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return false
	case "help":
		s.help()
	case "add":
		s.add(rest)
	case "get":
		s.get(rest)
	default:
		s.println("Unknown command. Type 'help' for available commands")
	}
	return true
}

func (s *Shell) help() {
	s.println("Available commands:")
	s.println("  add <domain> <type> <ttl> <data>  - Add a DNS record")
	s.println("  get <domain> <type>               - Show live records with remaining TTL")
	s.println("  quit/exit                         - Exit interactive mode")
	s.println("Examples:")
	s.println("  add example.com A 3600 192.168.1.1")
	s.println("  add example.com MX 3600 10 mail.example.com")
	s.println("  add example.com CNAME 3600 www.example.com")
	s.println("  add example.com NS 3600 ns.example.com")
	s.println("  get example.com MX")
}

// add handles "<domain> <type> <ttl> <data>"; data is the rest of the line.
func (s *Shell) add(args string) {
	name, args := splitWord(args)
	rrtype, args := splitWord(args)
	ttlStr, data := splitWord(args)
	if name == "" || rrtype == "" || ttlStr == "" || data == "" {
		s.println("Invalid add command. Use: add <domain> <type> <ttl> <data>")
		return
	}

	ttl, err := strconv.ParseUint(ttlStr, 10, 32)
	if err != nil {
		s.println("TTL must be a number")
		return
	}

	if err := s.svc.AddRecord(name, rrtype, uint32(ttl), data); err != nil {
		s.logger.Debug(map[string]any{"error": err.Error()}, "Shell add rejected")
		s.printf("Failed to add record: %v\n", err)
		return
	}
	s.printf("Record added: %s %s %d %s\n", name, rrtype, ttl, data)
}

func (s *Shell) get(args string) {
	name, args := splitWord(args)
	rrtype, extra := splitWord(args)
	if name == "" || rrtype == "" || extra != "" {
		s.println("Invalid get command. Use: get <domain> <type>")
		return
	}

	records, err := s.svc.GetRecords(name, rrtype)
	if err != nil {
		s.printf("Failed to get records: %v\n", err)
		return
	}
	if len(records) == 0 {
		s.println("No records found")
		return
	}
	now := s.clock.Now()
	for _, rr := range records {
		s.printf("%s %s %d %s\n", rr.Name, rr.Type, rr.RemainingTTL(now), rr.Data)
	}
}

// splitWord returns the first whitespace-delimited word and the trimmed rest.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func (s *Shell) println(msg string) {
	_, _ = fmt.Fprintln(s.out, msg)
}

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
