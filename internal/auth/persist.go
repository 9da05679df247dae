package auth

import (
	"context"
	"encoding/json"
	"errors"
)

// Persister keeps session state on disk with an optional object-storage
// mirror. All writes are best effort: a persistence failure degrades
// restart behavior, never the live session.
type Persister struct {
	Path string
	Blob BlobStore
}

// Load prefers the local state file and falls back to the blob mirror,
// rehydrating the local copy on the way.
func (p *Persister) Load(ctx context.Context) (State, error) {
	local, localErr := LoadState(p.Path)
	if localErr == nil {
		return local, nil
	}
	if !errors.Is(localErr, ErrStateNotFound) || p.Blob == nil {
		return State{}, localErr
	}

	data, err := p.Blob.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return State{}, ErrStateNotFound
		}
		return State{}, err
	}
	state, err := DecodeState(data)
	if err != nil {
		return State{}, err
	}
	if err := WriteState(p.Path, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Persist records the refresh token carried by the credential.
func (p *Persister) Persist(ctx context.Context, username string, cred Credential) error {
	state := State{
		SchemaVersion: SchemaVersion,
		Username:      username,
		RefreshToken:  cred.RefreshToken,
	}
	if err := WriteState(p.Path, state); err != nil {
		statePersistOK.Set(0)
		return err
	}
	if p.Blob != nil {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		if err := p.Blob.Save(ctx, data); err != nil {
			statePersistOK.Set(0)
			return err
		}
	}
	statePersistOK.Set(1)
	return nil
}
