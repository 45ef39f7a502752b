// Package channel holds the user-facing frontends. The chat core never
// depends on anything in here.
package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ee1922/selecty/internal/bus"
	"github.com/ee1922/selecty/internal/chat"
	"github.com/ee1922/selecty/internal/directory"
	"github.com/ee1922/selecty/internal/domain"
)

// BookingNotifier forwards accepted booking requests to salon staff.
type BookingNotifier interface {
	BookingReceived(req domain.BookingRequest)
}

// CLI is the interactive terminal frontend: a stylist picker, a per-stylist
// consultation chat, and a booking form.
type CLI struct {
	dir      *directory.Directory
	bookings domain.BookingStore
	notifier BookingNotifier
	device   domain.CaptureDevice

	frameWidth  int
	frameHeight int
	replyDelay  time.Duration
	replyText   string

	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

// CLIConfig wires the CLI's collaborators. Bookings and Notifier are
// optional; without them the /book command reports it is unavailable.
type CLIConfig struct {
	Directory   *directory.Directory
	Bookings    domain.BookingStore
	Notifier    BookingNotifier
	Device      domain.CaptureDevice
	FrameWidth  int
	FrameHeight int
	ReplyDelay  time.Duration
	ReplyText   string
	In          io.Reader
	Out         io.Writer
	Logger      *slog.Logger
}

func NewCLI(cfg CLIConfig) *CLI {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CLI{
		dir:         cfg.Directory,
		bookings:    cfg.Bookings,
		notifier:    cfg.Notifier,
		device:      cfg.Device,
		frameWidth:  cfg.FrameWidth,
		frameHeight: cfg.FrameHeight,
		replyDelay:  cfg.ReplyDelay,
		replyText:   cfg.ReplyText,
		in:          cfg.In,
		out:         cfg.Out,
		logger:      cfg.Logger,
	}
}

// Run shows the stylist picker and loops until the user quits or the
// context is cancelled.
func (c *CLI) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		stylists := c.dir.All()
		fmt.Fprintln(c.out, "スタイリスト一覧:")
		for i, s := range stylists {
			mark := "×"
			if s.Available {
				mark = "○"
			}
			fmt.Fprintf(c.out, "  %d. [%s] %s  %s\n", i+1, mark, s.Name, s.Title)
		}
		fmt.Fprint(c.out, "番号を選択 (q で終了)> ")

		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" {
			return nil
		}

		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(stylists) {
			fmt.Fprintln(c.out, "無効な選択です。")
			continue
		}

		if err := c.runChat(ctx, stylists[n-1], scanner); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// runChat drives one consultation session. Teardown is unconditional:
// whatever path leaves this function, the camera is released and all
// pending replies are cancelled.
func (c *CLI) runChat(ctx context.Context, stylist domain.Stylist, scanner *bufio.Scanner) error {
	session := chat.NewSession(chat.SessionConfig{
		Stylist:     stylist,
		Device:      c.device,
		FrameWidth:  c.frameWidth,
		FrameHeight: c.frameHeight,
		ReplyDelay:  c.replyDelay,
		ReplyText:   c.replyText,
		Logger:      c.logger,
	})
	defer session.Close()

	handlerID := session.Events().On(bus.EventChatMessage, func(e bus.Event) {
		if e.Payload["sender"] != string(domain.SenderStylist) {
			return
		}
		fmt.Fprintf(c.out, "\n%s> %v\n", stylist.Name, e.Payload["text"])
		c.prompt(session)
	})
	defer session.Events().Off(bus.EventChatMessage, handlerID)

	fmt.Fprintf(c.out, "%s とのチャットを開始しました。/help でコマンド一覧。\n", stylist.Name)
	c.prompt(session)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/back":
			return nil
		case line == "/quit" || line == "/q":
			return errQuit
		case line == "/help":
			c.printHelp()
		case line == "/attach":
			session.EnterAttachmentMode()
			fmt.Fprintln(c.out, "画像添付モード。/camera /capture /file <path> /discard /done")
		case line == "/done":
			session.FinishAttachment()
			fmt.Fprintln(c.out, "テキスト入力に戻りました。")
		case line == "/camera":
			if err := session.StartCamera(ctx); err != nil {
				c.notice(err)
			} else {
				fmt.Fprintln(c.out, "カメラ起動中。/capture で撮影します。")
			}
		case line == "/capture":
			if err := session.CaptureFrame(); err != nil {
				c.notice(err)
			} else {
				fmt.Fprintln(c.out, "撮影しました。送信待ちの画像があります。")
			}
		case strings.HasPrefix(line, "/file "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/file "))
			if err := session.ImportFile(ctx, path); err != nil {
				c.notice(err)
			} else {
				fmt.Fprintln(c.out, "画像を読み込みました。送信待ちの画像があります。")
			}
		case line == "/discard":
			session.DiscardStagedImage()
			fmt.Fprintln(c.out, "送信待ちの画像を破棄しました。")
		case line == "/book":
			c.runBooking(ctx, stylist, scanner)
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(c.out, "不明なコマンドです。/help を参照。")
		default:
			if _, err := session.Send(line); err != nil {
				c.notice(err)
			}
		}
		c.prompt(session)
	}
}

// runBooking collects a booking request and hands it to the booking
// subsystem. Chat state never flows in.
func (c *CLI) runBooking(ctx context.Context, stylist domain.Stylist, scanner *bufio.Scanner) {
	if c.bookings == nil {
		fmt.Fprintln(c.out, "予約機能は現在利用できません。")
		return
	}

	fmt.Fprint(c.out, "お名前> ")
	if !scanner.Scan() {
		return
	}
	name := strings.TrimSpace(scanner.Text())
	if name == "" {
		fmt.Fprintln(c.out, "お名前が必要です。")
		return
	}

	fmt.Fprint(c.out, "希望日時 (YYYY-MM-DD HH:MM)> ")
	if !scanner.Scan() {
		return
	}
	when, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(scanner.Text()), time.Local)
	if err != nil {
		fmt.Fprintln(c.out, "日時の形式が正しくありません。")
		return
	}

	fmt.Fprint(c.out, "メモ (任意)> ")
	if !scanner.Scan() {
		return
	}
	note := strings.TrimSpace(scanner.Text())

	req := domain.BookingRequest{
		StylistID:    stylist.ID,
		StylistName:  stylist.Name,
		CustomerName: name,
		RequestedAt:  when,
		Note:         note,
	}
	if err := c.bookings.Add(ctx, req); err != nil {
		c.logger.Error("booking store failed", "err", err)
		fmt.Fprintln(c.out, "予約リクエストの保存に失敗しました。")
		return
	}
	if c.notifier != nil {
		c.notifier.BookingReceived(req)
	}
	fmt.Fprintln(c.out, "予約リクエストを送信しました。")
}

func (c *CLI) prompt(session *chat.Session) {
	marker := ""
	if _, ok := session.StagedImage(); ok {
		marker = " [画像]"
	}
	if session.Mode() == chat.ModeAttachment {
		fmt.Fprintf(c.out, "添付%s> ", marker)
		return
	}
	fmt.Fprintf(c.out, "あなた%s> ", marker)
}

// notice renders a recoverable failure without ending the session.
func (c *CLI) notice(err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		fmt.Fprintln(c.out, "メッセージか画像を入力してください。")
	case errors.Is(err, domain.ErrCaptureUnavailable):
		fmt.Fprintln(c.out, "カメラを利用できません。/file で画像を選択できます。")
	case errors.Is(err, domain.ErrCaptureActive):
		fmt.Fprintln(c.out, "カメラは既に起動しています。")
	case errors.Is(err, domain.ErrNoActiveStream):
		fmt.Fprintln(c.out, "カメラが起動していません。/camera で起動してください。")
	case errors.Is(err, domain.ErrUnreadableFile):
		fmt.Fprintln(c.out, "画像を読み込めませんでした。別のファイルをお試しください。")
	default:
		fmt.Fprintf(c.out, "エラー: %v\n", err)
	}
}

func (c *CLI) printHelp() {
	fmt.Fprintln(c.out, `コマンド:
  /attach        画像添付モードへ
  /camera        カメラを起動
  /capture       撮影して送信待ちにする
  /file <path>   画像ファイルを読み込む
  /discard       送信待ちの画像を破棄
  /done          テキスト入力に戻る
  /book          予約リクエストを送る
  /back          スタイリスト一覧へ戻る
  /quit          終了`)
}

// errQuit unwinds the picker loop from inside a chat.
var errQuit = errors.New("quit")
