// Package sftp provides a slotfeed connector over a directory on an SFTP
// server, the classic home of nightly partner feeds.
package sftp

import (
	"context"
	"io"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	gosftp "github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/connector"
)

// Options configures a Remote connector.
type Options struct {
	// Addr is the server address as host:port. Required.
	Addr string
	User string

	// Password and KeyPEM select the auth methods to offer. At least one
	// is required; both may be set.
	Password string
	KeyPEM   []byte

	// HostKey pins the server's public key. InsecureSkipVerify accepts
	// any key instead; never use it outside tests.
	HostKey            ssh.PublicKey
	InsecureSkipVerify bool

	// Dir is the remote directory to list. Required.
	Dir string

	// DialTimeout bounds the TCP and SSH handshake.
	DialTimeout time.Duration

	// TimePattern and TimeLayout extract slot timestamps from file names;
	// empty values select the connector defaults (ISO dates). Files whose
	// name carries no timestamp use their modification time.
	TimePattern string
	TimeLayout  string
}

// Remote lists and fetches files over one lazily dialed SFTP session.
// Dialing inside List and Fetch keeps connection failures under the
// pipeline's retry budget; a dead session is dropped on error so the next
// attempt dials fresh.
//
// Remote implements slotfeed.Stopper, so Run closes the session on
// shutdown. Callers driving RunCycle directly should call Stop themselves.
type Remote struct {
	opts  Options
	namet *connector.NameTimer

	mu     sync.Mutex
	conn   *ssh.Client
	client *gosftp.Client
}

// New builds a Remote connector. It validates options but does not dial.
func New(opts Options) (*Remote, error) {
	if opts.Addr == "" || opts.Dir == "" {
		return nil, errors.New("sftp: Options.Addr and Options.Dir are required")
	}
	if opts.Password == "" && len(opts.KeyPEM) == 0 {
		return nil, errors.New("sftp: password or key auth is required")
	}
	if opts.HostKey == nil && !opts.InsecureSkipVerify {
		return nil, errors.New("sftp: HostKey is required unless InsecureSkipVerify is set")
	}
	namet, err := connector.NewNameTimer(opts.TimePattern, opts.TimeLayout)
	if err != nil {
		return nil, errors.Wrap(err, "sftp: time pattern")
	}
	return &Remote{opts: opts, namet: namet}, nil
}

// session returns the cached SFTP client, dialing on first use.
func (r *Remote) session() (*gosftp.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}

	cfg := &ssh.ClientConfig{
		User:    r.opts.User,
		Timeout: r.opts.DialTimeout,
	}
	if r.opts.Password != "" {
		cfg.Auth = append(cfg.Auth, ssh.Password(r.opts.Password))
	}
	if len(r.opts.KeyPEM) > 0 {
		signer, err := ssh.ParsePrivateKey(r.opts.KeyPEM)
		if err != nil {
			return nil, errors.Wrap(err, "sftp: parsing private key")
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
	}
	if r.opts.InsecureSkipVerify {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		cfg.HostKeyCallback = ssh.FixedHostKey(r.opts.HostKey)
	}

	conn, err := ssh.Dial("tcp", r.opts.Addr, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "sftp: dialing %s", r.opts.Addr)
	}
	client, err := gosftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "sftp: starting sftp session")
	}
	r.conn = conn
	r.client = client
	return client, nil
}

// List reads the remote directory and returns its regular files in name
// order.
func (r *Remote) List(ctx context.Context) ([]slotfeed.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := r.session()
	if err != nil {
		return nil, err
	}
	infos, err := client.ReadDir(r.opts.Dir)
	if err != nil {
		r.reset()
		return nil, errors.Wrapf(err, "sftp: listing %s", r.opts.Dir)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var slots []slotfeed.Slot
	for _, info := range infos {
		if info.IsDir() || !info.Mode().IsRegular() {
			continue
		}
		t, ok := r.namet.Time(info.Name())
		if !ok {
			t = info.ModTime()
		}
		slots = append(slots, slotfeed.Slot{Name: info.Name(), Time: t})
	}
	return slots, nil
}

// Fetch opens one remote file.
func (r *Remote) Fetch(ctx context.Context, s slotfeed.Slot) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := r.session()
	if err != nil {
		return nil, err
	}
	f, err := client.Open(path.Join(r.opts.Dir, s.Name))
	if err != nil {
		r.reset()
		return nil, errors.Wrapf(err, "sftp: opening %s", s.Name)
	}
	return f, nil
}

// Stop implements slotfeed.Stopper.
func (r *Remote) Stop(context.Context, *slotfeed.Stats, error) { r.reset() }

// reset drops the cached session so the next call dials fresh.
func (r *Remote) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		r.client.Close()
		r.client = nil
	}
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}
