package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/khanghh/ktoken/internal/audit"
	"github.com/khanghh/ktoken/internal/handlers/api"
	"github.com/khanghh/ktoken/internal/tokens"
	"github.com/urfave/cli/v2"
)

const cliUserAgent = "ktoken-cli"

var (
	userFlag = &cli.StringFlag{
		Name:     "user",
		Usage:    "Owning user id",
		Required: true,
	}
	scopeFlag = &cli.StringSliceFlag{
		Name:  "scope",
		Usage: "Permission scope (read, write, delete), repeatable",
	}
	expiresFlag = &cli.IntFlag{
		Name:  "expires",
		Usage: "Lifetime in minutes",
		Value: 60,
	}
)

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Issue and inspect tokens directly against the database",
	Subcommands: []*cli.Command{
		{
			Name:   "create",
			Usage:  "Issue a new token and print it as JSON",
			Flags:  []cli.Flag{userFlag, scopeFlag, expiresFlag},
			Action: createToken,
		},
		{
			Name:   "list",
			Usage:  "Print the active tokens of a user as JSON",
			Flags:  []cli.Flag{userFlag},
			Action: listTokens,
		},
	},
}

type tokenCommandDeps struct {
	tokenService  *tokens.TokenService
	auditRecorder api.AuditRecorder
	cleanup       func()
}

func initTokenCommand(ctx *cli.Context) (*tokenCommandDeps, error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	db := mustInitDatabase(config.Database)
	mustMigrateDatabase(db)
	// shares the server cache so a created token invalidates cached lookups
	cacheStorage, _ := mustInitCacheStorage(config)
	return &tokenCommandDeps{
		tokenService:  newTokenService(db, cacheStorage, config.Cache.TTL),
		auditRecorder: newAuditRecorder(config, db),
		cleanup: func() {
			if cacheStorage != nil {
				cacheStorage.Close()
			}
		},
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func createToken(ctx *cli.Context) error {
	deps, err := initTokenCommand(ctx)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	token, err := deps.tokenService.CreateToken(ctx.Context, ctx.String(userFlag.Name), ctx.StringSlice(scopeFlag.Name), ctx.Int(expiresFlag.Name))
	if err != nil {
		return err
	}
	if deps.auditRecorder != nil {
		err := deps.auditRecorder.RecordTokenIssued(ctx.Context, audit.TokenIssuedRecord{
			UserID:    token.UserID,
			TokenID:   token.ID,
			Scopes:    token.Scopes,
			ExpiresAt: token.ExpiresAt,
			UserAgent: cliUserAgent,
		})
		if err != nil {
			slog.Warn("Token issued without audit record", "tokenID", token.ID, "error", err)
		}
	}
	return printJSON(token)
}

func listTokens(ctx *cli.Context) error {
	deps, err := initTokenCommand(ctx)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	tokens, err := deps.tokenService.GetActiveTokensByUserID(ctx.Context, ctx.String(userFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(api.ListTokensResponse{Tokens: tokens})
}
