package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Text_Prefers_The_Lazy_Producer(t *testing.T) {
	req := require.New(t)

	message := Message{Body: "stored", Lazy: func() string { return "produced" }}

	req.Equal("produced", message.Text())
	req.Equal("stored", Message{Body: "stored"}.Text())
}

func Test_Marker_Body_Is_A_Directive(t *testing.T) {
	req := require.New(t)

	message := Message{Body: CommandMarker + "/image --src=cat.png"}

	req.True(message.IsDirective())
	req.Equal("/image --src=cat.png", message.Directive())
}

func Test_Plain_Body_Is_Not_A_Directive(t *testing.T) {
	req := require.New(t)

	req.False(Message{Body: "just talking about ##COMMAND: things"}.IsDirective())
	req.False(Message{Lazy: func() string { return CommandMarker + "/image" }}.IsDirective())
}

func Test_UTCNow_Has_Second_Precision(t *testing.T) {
	req := require.New(t)

	now := UTCNow()

	req.InDelta(time.Now().UTC().Unix(), now, 2)
}
