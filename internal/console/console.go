package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chatbook/internal/models"
)

var ErrUnknownCommand = errors.New("unknown command")

// ChatService is the part of services.ChatService the console drives.
type ChatService interface {
	SendMessage(ctx context.Context, chatID int, sender, recipient models.User, content string) models.Chat
	GetChats(ctx context.Context, userID int) []models.Chat
	GetUnreadChatsCount(ctx context.Context, userID int) int
	GetMessages(ctx context.Context, chatID, recipientID, count int) []models.Message
	GetLastMessages(ctx context.Context, userID int) []string
	EditMessage(ctx context.Context, messageID int, newContent string) bool
	DeleteMessage(ctx context.Context, messageID int) bool
	DeleteChat(ctx context.Context, chatID int) bool
	ChatCount() int
	MessageCount() int
}

type command struct {
	usage   string
	minArgs int
	run     func(ctx context.Context, args []string, w io.Writer) error
}

// Console executes line commands against a ChatService.
type Console struct {
	svc      ChatService
	log      *zap.Logger
	commands map[string]command
}

// New builds a Console.
func New(svc ChatService, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Console{svc: svc, log: log.With(zap.String("component", "console"))}
	c.commands = map[string]command{
		"send":     {usage: "send <chatID> <senderID> <recipientID> <text...>", minArgs: 4, run: c.send},
		"chats":    {usage: "chats <userID>", minArgs: 1, run: c.chats},
		"unread":   {usage: "unread <userID>", minArgs: 1, run: c.unread},
		"messages": {usage: "messages <chatID> <recipientID> <count>", minArgs: 3, run: c.messages},
		"last":     {usage: "last <userID>", minArgs: 1, run: c.last},
		"edit":     {usage: "edit <messageID> <text...>", minArgs: 2, run: c.edit},
		"delete":   {usage: "delete <messageID>", minArgs: 1, run: c.deleteMessage},
		"drop":     {usage: "drop <chatID>", minArgs: 1, run: c.drop},
		"stats":    {usage: "stats", run: c.stats},
	}
	return c
}

// Run reads commands from r until EOF, "quit" or ctx cancellation. Command
// failures are written to w and do not stop the loop.
func (c *Console) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := c.Execute(ctx, line, w); err != nil {
			c.log.Debug("command failed", zap.String("line", line), zap.Error(err))
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

// Execute runs a single command line.
func (c *Console) Execute(ctx context.Context, line string, w io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]
	if name == "help" {
		c.help(w)
		return nil
	}

	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if len(args) < cmd.minArgs {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(ctx, args, w)
}

func (c *Console) help(w io.Writer) {
	for _, name := range []string{"send", "chats", "unread", "messages", "last", "edit", "delete", "drop", "stats"} {
		fmt.Fprintln(w, c.commands[name].usage)
	}
	fmt.Fprintln(w, "quit")
}

func (c *Console) send(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:3], "chat id", "sender id", "recipient id")
	if err != nil {
		return err
	}
	text := strings.Join(args[3:], " ")
	chat := c.svc.SendMessage(ctx, ids[0], models.User{ID: ids[1]}, models.User{ID: ids[2]}, text)
	msg, _ := chat.LastMessage()
	fmt.Fprintf(w, "chat %d message %d (unread %d)\n", chat.ID, msg.ID, chat.UnreadCount)
	return nil
}

func (c *Console) chats(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:1], "user id")
	if err != nil {
		return err
	}
	chats := c.svc.GetChats(ctx, ids[0])
	if len(chats) == 0 {
		fmt.Fprintln(w, "no chats")
		return nil
	}
	for _, chat := range chats {
		fmt.Fprintf(w, "chat %d: %d<->%d messages=%d unread=%d\n",
			chat.ID, chat.User1.ID, chat.User2.ID, len(chat.Messages), chat.UnreadCount)
	}
	return nil
}

func (c *Console) unread(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:1], "user id")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, c.svc.GetUnreadChatsCount(ctx, ids[0]))
	return nil
}

func (c *Console) messages(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:3], "chat id", "recipient id", "count")
	if err != nil {
		return err
	}
	msgs := c.svc.GetMessages(ctx, ids[0], ids[1], ids[2])
	if len(msgs) == 0 {
		fmt.Fprintln(w, "no messages")
		return nil
	}
	for _, msg := range msgs {
		state := "unread"
		if msg.IsRead {
			state = "read"
		}
		fmt.Fprintf(w, "#%d %d->%d [%s] %s\n", msg.ID, msg.Sender.ID, msg.Recipient.ID, state, msg.Content)
	}
	return nil
}

func (c *Console) last(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:1], "user id")
	if err != nil {
		return err
	}
	for _, content := range c.svc.GetLastMessages(ctx, ids[0]) {
		fmt.Fprintln(w, content)
	}
	return nil
}

func (c *Console) edit(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:1], "message id")
	if err != nil {
		return err
	}
	writeResult(w, c.svc.EditMessage(ctx, ids[0], strings.Join(args[1:], " ")))
	return nil
}

func (c *Console) deleteMessage(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:1], "message id")
	if err != nil {
		return err
	}
	writeResult(w, c.svc.DeleteMessage(ctx, ids[0]))
	return nil
}

func (c *Console) drop(ctx context.Context, args []string, w io.Writer) error {
	ids, err := parseInts(args[:1], "chat id")
	if err != nil {
		return err
	}
	writeResult(w, c.svc.DeleteChat(ctx, ids[0]))
	return nil
}

func (c *Console) stats(_ context.Context, _ []string, w io.Writer) error {
	fmt.Fprintf(w, "chats=%d messages=%d\n", c.svc.ChatCount(), c.svc.MessageCount())
	return nil
}

func writeResult(w io.Writer, ok bool) {
	if ok {
		fmt.Fprintln(w, "ok")
		return
	}
	fmt.Fprintln(w, "not found")
}

func parseInts(args []string, names ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", names[i], arg)
		}
		out[i] = v
	}
	return out, nil
}
