package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailgate/internal/google"
	"github.com/teemow/mailgate/internal/output"
	"github.com/teemow/mailgate/internal/server"
	"github.com/teemow/mailgate/internal/tools/common"
)

// Tool names.
const (
	ToolGmailAuthURL  = "mailgate_gmail_auth_url"
	ToolGmailSaveCode = "mailgate_gmail_save_code"
)

// RegisterGoogleTools registers the Gmail provider authorization tools.
// defaultAccount is used when a call omits the account argument.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext, tokens *google.TokenStore, defaultAccount string) error {
	if tokens == nil {
		return fmt.Errorf("token store is required")
	}
	if defaultAccount == "" {
		defaultAccount = "default"
	}

	getAuthURLTool := mcp.NewTool(ToolGmailAuthURL,
		mcp.WithDescription("Get the OAuth URL that authorizes a Gmail account to send mail released by the gate"),
		mcp.WithString("account",
			mcp.Description(fmt.Sprintf("Account name (default: '%s'). Matches the inbox id used with the gmail provider.", defaultAccount)),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler(ToolGmailAuthURL, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, tokens, defaultAccount)
		}))

	saveAuthCodeTool := mcp.NewTool(ToolGmailSaveCode,
		mcp.WithDescription("Save the OAuth authorization code to complete Gmail authorization for an account"),
		mcp.WithString("account",
			mcp.Description(fmt.Sprintf("Account name (default: '%s')", defaultAccount)),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler(ToolGmailSaveCode, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, tokens, defaultAccount)
		}))

	return nil
}

func accountArg(request mcp.CallToolRequest, defaultAccount string) string {
	if account := common.StringArg(request.GetArguments(), "account"); account != "" {
		return account
	}
	return defaultAccount
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, tokens *google.TokenStore, defaultAccount string) (*mcp.CallToolResult, error) {
	account := accountArg(request, defaultAccount)

	conf, err := google.OAuthConfig()
	if err != nil {
		return common.ErrorResult(err), nil
	}

	result := fmt.Sprintf(`To authorize Gmail sending for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with the Google account
3. Grant access
4. Copy the authorization code

5. Call %s with the code and account name to complete authorization`, account, google.AuthURL(conf), ToolGmailSaveCode)

	if tokens.HasToken(account) {
		result += "\n\nNote: a token for this account already exists and will be replaced."
	}

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, tokens *google.TokenStore, defaultAccount string) (*mcp.CallToolResult, error) {
	account := accountArg(request, defaultAccount)

	authCode, err := common.RequiredStringArg(request.GetArguments(), "authCode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conf, err := google.OAuthConfig()
	if err != nil {
		return common.ErrorResult(err), nil
	}

	if err := tokens.ExchangeAndSave(ctx, conf, account, authCode); err != nil {
		return common.ErrorResult(fmt.Errorf("failed to save authorization code for account %s: %w", account, err)), nil
	}

	return mcp.NewToolResultText(output.FormatMutation("token_saved", output.F("account", account))), nil
}
