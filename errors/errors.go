package errors

import "fmt"

var (
	ErrNotAuthenticated    = fmt.Errorf("you're not authenticated")
	ErrEmptyName           = fmt.Errorf("nick can't be empty")
	ErrNameTaken           = fmt.Errorf("name is already taken")
	ErrUnknownProvider     = fmt.Errorf("unknown provider")
	ErrUnsupportedProvider = fmt.Errorf("unsupported provider")
	ErrAdapterContract     = fmt.Errorf("adapter doesn't satisfy the adapter capability set")
	ErrRendererContract    = fmt.Errorf("renderer doesn't satisfy the renderer capability set")
	ErrNoRoomJoined        = fmt.Errorf("no room joined")
	ErrTokenGeneration     = fmt.Errorf("session token generation failed")
)
