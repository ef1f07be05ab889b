// Command ledgerctl is a small operator client for the ledger server.
//
//	ledgerctl token -uid alice -email alice@example.com
//	ledgerctl balances -circle <id>
//	ledgerctl debts [-circle <id>]
//	ledgerctl watch -circle <id>
//
// Calls authenticate with LEDGER_TOKEN, or with a token minted from JWT_SECRET for -uid.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"connectrpc.com/connect"
	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/mmynk/splitcircle/internal/auth"
	"github.com/mmynk/splitcircle/internal/config"
	"github.com/mmynk/splitcircle/internal/middleware"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/pkg/api"
	"github.com/mmynk/splitcircle/pkg/api/apiconnect"
)

var (
	owed  = color.New(color.FgGreen).SprintFunc()
	owes  = color.New(color.FgRed).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "token":
		err = runToken(args)
	case "balances":
		err = runBalances(ctx, args)
	case "debts":
		err = runDebts(ctx, args)
	case "watch":
		err = runWatch(ctx, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, owes("error:"), err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ledgerctl <token|balances|debts|watch> [flags]")
}

// common holds the connection flags shared by every RPC command.
type common struct {
	addr  string
	uid   string
	email string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", envOr("LEDGER_ADDR", "http://localhost:8080"), "server base URL")
	fs.StringVar(&c.uid, "uid", "", "act as this user (needs JWT_SECRET)")
	fs.StringVar(&c.email, "email", "", "email for -uid")
}

func (c *common) token() (string, error) {
	if c.uid != "" {
		return mint(c.uid, c.email)
	}
	if t := os.Getenv("LEDGER_TOKEN"); t != "" {
		return t, nil
	}
	return "", errors.New("set LEDGER_TOKEN or pass -uid")
}

func (c *common) clients() (apiconnect.LedgerServiceClient, apiconnect.CircleServiceClient, error) {
	token, err := c.token()
	if err != nil {
		return nil, nil, err
	}
	httpClient := http.DefaultClient
	opt := connect.WithInterceptors(middleware.BearerToken(token))
	return apiconnect.NewLedgerServiceClient(httpClient, c.addr, opt),
		apiconnect.NewCircleServiceClient(httpClient, c.addr, opt),
		nil
}

func mint(uid, email string) (string, error) {
	cfg := config.Load()
	return auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry).Generate(models.UserProfile{UID: uid, Email: email})
}

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	uid := fs.String("uid", "", "user ID")
	email := fs.String("email", "", "email")
	_ = fs.Parse(args)
	if *uid == "" {
		return errors.New("-uid is required")
	}
	token, err := mint(*uid, *email)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runBalances(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("balances", flag.ExitOnError)
	c.register(fs)
	circleID := fs.String("circle", "", "circle ID")
	_ = fs.Parse(args)
	if *circleID == "" {
		return errors.New("-circle is required")
	}

	_, circles, err := c.clients()
	if err != nil {
		return err
	}
	resp, err := circles.GetCircleBalances(ctx, connect.NewRequest(&api.GetCircleBalancesRequest{CircleID: *circleID}))
	if err != nil {
		return err
	}
	printBalances(resp.Msg.CircleBalances)
	return nil
}

func runDebts(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("debts", flag.ExitOnError)
	c.register(fs)
	circleID := fs.String("circle", "", "only debts in this circle")
	_ = fs.Parse(args)

	ledgerClient, _, err := c.clients()
	if err != nil {
		return err
	}
	var debts []*api.Debt
	if *circleID != "" {
		resp, err := ledgerClient.GetCircleDebts(ctx, connect.NewRequest(&api.GetCircleDebtsRequest{CircleID: *circleID}))
		if err != nil {
			return err
		}
		debts = resp.Msg.Debts
	} else {
		resp, err := ledgerClient.GetMyDebts(ctx, connect.NewRequest(&api.GetMyDebtsRequest{}))
		if err != nil {
			return err
		}
		debts = resp.Msg.Debts
	}

	if len(debts) == 0 {
		fmt.Println(faint("no debts"))
		return nil
	}
	for _, d := range debts {
		fmt.Printf("%s  %s owes %s %s for %q %s\n",
			faint(d.ID), d.Debtor.DisplayName, d.Creditor.DisplayName,
			bold(d.Amount.StringFixed(2)), d.TransactionDescription, faint("["+d.Status+"]"))
	}
	return nil
}

func runWatch(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	c.register(fs)
	circleID := fs.String("circle", "", "circle ID")
	_ = fs.Parse(args)
	if *circleID == "" {
		return errors.New("-circle is required")
	}

	_, circles, err := c.clients()
	if err != nil {
		return err
	}
	stream, err := circles.WatchCircle(ctx, connect.NewRequest(&api.WatchCircleRequest{CircleID: *circleID}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		fmt.Println(faint(time.Now().Format(time.Kitchen)))
		printBalances(stream.Msg().CircleBalances)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printBalances(b api.CircleBalances) {
	for _, bal := range b.Balances {
		amount := bal.Net.StringFixed(2)
		switch {
		case bal.Net.IsPositive():
			amount = owed("+" + amount)
		case bal.Net.IsNegative():
			amount = owes(amount)
		}
		fmt.Printf("%-24s %s\n", bal.Member.DisplayName, amount)
	}
	if len(b.Transfers) > 0 {
		fmt.Println(bold("to settle up:"))
	}
	for _, t := range b.Transfers {
		fmt.Printf("  %s -> %s  %s\n", t.From.DisplayName, t.To.DisplayName, t.Amount.StringFixed(2))
	}
	for _, s := range b.Pending {
		fmt.Printf("  %s %s -> %s  %s\n", faint("pending"), s.From.DisplayName, s.To.DisplayName, s.Amount.StringFixed(2))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
