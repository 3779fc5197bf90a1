// Package dataset reads voter populations and vote sets from files. Both YAML
// and JSON are accepted; JSON documents are valid YAML.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cmwaters/liquid/delegation"
	"github.com/cmwaters/liquid/pkg/registry"
)

var ErrEmptyDocument = errors.New("document is empty")

// ReadVoters decodes a list of voters, each with a uid, full_name and an
// optional delegate:
//
//	[{uid: a, full_name: Mitch McConnell, delegate: b}]
func ReadVoters(r io.Reader) ([]registry.Voter, error) {
	var voters []registry.Voter
	if err := decode(r, &voters); err != nil {
		return nil, fmt.Errorf("decoding voters: %w", err)
	}
	return voters, nil
}

// ReadVotes decodes a mapping from voter uid to position:
//
//	a: yay
//	c: blank
func ReadVotes(r io.Reader) (delegation.Votes, error) {
	votes := make(delegation.Votes)
	if err := decode(r, &votes); err != nil {
		return nil, fmt.Errorf("decoding votes: %w", err)
	}
	return votes, nil
}

// LoadRegistry reads the voter file at path and builds a registry from it.
// Dangling delegates and duplicate uids fail the load.
func LoadRegistry(path string) (*registry.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	voters, err := ReadVoters(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	reg, err := registry.New(voters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// LoadVotes reads the vote file at path.
func LoadVotes(path string) (delegation.Votes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	votes, err := ReadVotes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return votes, nil
}

// WriteVotes encodes votes in the format ReadVotes accepts, sorted by uid.
// NoVote entries are not written.
func WriteVotes(w io.Writer, votes delegation.Votes) error {
	cast := make(delegation.Votes, len(votes))
	for uid, p := range votes {
		if p.IsExplicit() {
			cast[uid] = p
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cast); err != nil {
		return fmt.Errorf("encoding votes: %w", err)
	}
	return enc.Close()
}

// SaveVotes replaces the vote file at path.
func SaveVotes(path string, votes delegation.Votes) error {
	var buf bytes.Buffer
	if err := WriteVotes(&buf, votes); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func decode(r io.Reader, out interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmptyDocument
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
