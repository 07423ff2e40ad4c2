package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type testChatSessionSuite struct {
	BaseSuite
}

func TestChatSessionSuite(t *testing.T) {
	suite.Run(t, &testChatSessionSuite{})
}

func (s *testChatSessionSuite) TestFullChatFlow() {
	ctx := context.Background()
	alice := s.NewClient("alice")
	bob := s.NewClient("bob")

	// --- STEP 1: AUTHENTICATION ---
	s.Step("Step 1: Both participants authenticate")
	s.Require().NoError(alice.Session.System(ctx, "/login", []string{"github"}))
	s.Require().NoError(bob.Session.System(ctx, "/login", []string{"google"}))

	name, err := alice.Adapter.GetUser()
	s.Require().NoError(err)
	s.Require().Equal("alice", name)

	// --- STEP 2: NICKNAME CHANGE ---
	s.Step("Step 2: Bob picks a nickname")
	s.Require().NoError(bob.Session.System(ctx, "/nick", []string{"builder"}))
	name, err = bob.Adapter.GetUser()
	s.Require().NoError(err)
	s.Require().Equal("builder", name)

	// Taken nicknames are refused across participants
	s.Require().Error(alice.Session.System(ctx, "/nick", []string{"builder"}))

	// --- STEP 3: JOIN THE ROOM ---
	s.Step("Step 3: Both participants join " + s.Config.Room)
	s.Require().NoError(alice.Session.System(ctx, "/join", []string{s.Config.Room}))
	s.Require().NoError(bob.Session.System(ctx, "/join", []string{s.Config.Room}))
	s.Require().Equal([]string{s.Config.Room}, alice.Session.Rooms())

	// --- STEP 4: PRESENCE ---
	s.Step("Step 4: Presence lists both display names")
	users, err := alice.Adapter.Users(ctx)
	s.Require().NoError(err)
	s.Require().ElementsMatch([]string{"alice", "builder"}, users)

	// --- STEP 5: MESSAGE DELIVERY & UNREAD ACCOUNTING ---
	s.Step("Step 5: Alice writes while Bob is away")
	bob.Focus.Set(false)
	s.Require().NoError(alice.Adapter.Send(ctx, "alice", time.Now().UTC().Unix(), "hello builder"))

	s.Require().Eventually(func() bool {
		return strings.Contains(bob.Out.String(), "hello builder")
	}, 10*time.Second, 20*time.Millisecond, "message never reached bob's surface")
	s.Require().Eventually(func() bool {
		return bob.Adapter.UnreadMessages() == 1
	}, 10*time.Second, 20*time.Millisecond)

	// The sender's own echo never counts as unread
	s.Require().Eventually(func() bool {
		return strings.Contains(alice.Out.String(), "hello builder")
	}, 10*time.Second, 20*time.Millisecond)
	s.Require().Zero(alice.Adapter.UnreadMessages())

	// --- STEP 6: FOCUS REGAIN CLEARS UNREAD ---
	s.Step("Step 6: Bob comes back")
	bob.Focus.Set(true)
	s.Require().Zero(bob.Adapter.UnreadMessages())

	// --- STEP 7: BACKLOG REPLAY FOR A LATE JOINER ---
	s.Step("Step 7: A late joiner replays the backlog")
	carol := s.NewClient("carol")
	s.Require().NoError(carol.Session.System(ctx, "/login", []string{"twitter"}))
	s.Require().NoError(carol.Session.System(ctx, "/join", []string{s.Config.Room}))
	s.Require().Eventually(func() bool {
		return strings.Contains(carol.Out.String(), "hello builder")
	}, 10*time.Second, 20*time.Millisecond, "backlog never replayed")

	// --- STEP 8: LEAVING ---
	s.Step("Step 8: Alice quits every room")
	s.Require().NoError(alice.Session.System(ctx, "/quit", nil))
	s.Require().Empty(alice.Session.Rooms())
}
