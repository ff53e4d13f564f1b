package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"stocknews-client/src/app"
	"stocknews-client/src/helpers"
	"stocknews-client/src/models"
)

type command struct {
	usage   string
	restore bool // restore the persisted session first
	run     func(ctx context.Context, a *app.App, out io.Writer, args []string) error
}

var commands = map[string]command{
	"login":      {usage: "login -u <username> -p <password>", run: cmdLogin},
	"register":   {usage: "register -email <email> -u <username> -p <password>", run: cmdRegister},
	"logout":     {usage: "sign out and forget the stored token", run: cmdLogout},
	"whoami":     {usage: "show the signed-in user", restore: true, run: cmdWhoami},
	"headlines":  {usage: "headlines [-category c] [-country cc] [-q query]", run: cmdHeadlines},
	"news":       {usage: "news [-category c] [-limit n]", run: cmdNews},
	"news-show":  {usage: "news-show <id>", run: cmdNewsShow},
	"stocks":     {usage: "stocks [-exchange x]", run: cmdStocks},
	"stock":      {usage: "stock <symbol>", run: cmdStock},
	"favorite":   {usage: "favorite <symbol>", restore: true, run: cmdFavorite(true)},
	"unfavorite": {usage: "unfavorite <symbol>", restore: true, run: cmdFavorite(false)},
	"favorites":  {usage: "list favorite stocks", restore: true, run: cmdFavorites},
	"forum":      {usage: "list forum posts", run: cmdForum},
	"forum-show": {usage: "forum-show <post-id>", run: cmdForumShow},
	"post":       {usage: "post -title t -content c [-stocks AAPL,MSFT]", restore: true, run: cmdPost},
	"comment":    {usage: "comment <post-id> <text...>", restore: true, run: cmdComment},
	"upvote":     {usage: "upvote <post-id>", restore: true, run: cmdUpvote},
}

// -----------------------------------------------------------------------------

func flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", helpers.NewValidationError(what + " is required")
	}
	return strings.TrimSpace(args[0]), nil
}

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

// -----------------------------------------------------------------------------
// Account
// -----------------------------------------------------------------------------

func cmdLogin(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result := a.Session.Login(ctx, *username, *password)
	if !result.Success {
		return helpers.NewValidationError(result.Message)
	}
	fmt.Fprintf(out, "Logged in as %s\n", a.Session.State().User.Username)
	return nil
}

func cmdRegister(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flagSet("register")
	email := fs.String("email", "", "email")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result := a.Session.Register(ctx, *email, *username, *password)
	if !result.Success {
		return helpers.NewValidationError(result.Message)
	}
	fmt.Fprintf(out, "Registered and logged in as %s\n", a.Session.State().User.Username)
	return nil
}

func cmdLogout(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	a.Session.Logout()
	fmt.Fprintln(out, "Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	user := a.Session.State().User
	if user == nil {
		fmt.Fprintln(out, "Not signed in")
		return nil
	}

	fmt.Fprintf(out, "%s <%s>\n", user.Username, user.Email)
	if len(user.FavoriteStocks) > 0 {
		fmt.Fprintf(out, "Favorites: %s\n", strings.Join(user.FavoriteStocks, ", "))
	}
	return nil
}

// -----------------------------------------------------------------------------
// Market data
// -----------------------------------------------------------------------------

func cmdHeadlines(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flagSet("headlines")
	category := fs.String("category", a.Config.Dashboard.NewsCategory, "news category")
	country := fs.String("country", a.Config.Dashboard.NewsCountry, "country code")
	query := fs.String("q", "", "search everything instead of top headlines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var headlines []models.MHeadline
	var err error
	if *query != "" {
		headlines, err = a.API.Everything(ctx, *query)
	} else {
		headlines, err = a.API.TopHeadlines(ctx, *category, *country)
	}
	if err != nil {
		return err
	}

	for _, h := range headlines {
		fmt.Fprintf(out, "%s\n  %s | %s\n", h.Headline, h.Source, h.Datetime.Format("2006-01-02 15:04"))
	}
	return nil
}

func cmdNews(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flagSet("news")
	category := fs.String("category", "", "filter by category")
	limit := fs.Int("limit", 0, "maximum items")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := a.API.ListNews(ctx, *category, *limit)
	if err != nil {
		return err
	}

	w := table(out)
	fmt.Fprintln(w, "ID\tCATEGORY\tTITLE")
	for _, n := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.Category, n.Title)
	}
	return w.Flush()
}

func cmdNewsShow(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	id, err := oneArg(args, "News id")
	if err != nil {
		return err
	}

	item, err := a.API.GetNews(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n%s | %s\n\n%s\n", item.Title, item.Source, item.PublishedAt.Format("2006-01-02"), item.Content)
	if len(item.AffectedStocks) > 0 {
		fmt.Fprintf(out, "\nAffected: %s\n", strings.Join(item.AffectedStocks, ", "))
	}

	impacts, err := a.API.NewsImpacts(ctx, id)
	if err != nil {
		return err
	}
	for _, imp := range impacts {
		fmt.Fprintf(out, "  %s  %+.2f  %s\n", imp.StockID, imp.ImpactScore, imp.Explanation)
	}
	return nil
}

func cmdStocks(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flagSet("stocks")
	exchange := fs.String("exchange", "", "filter by exchange")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stocks, err := a.API.ListStocks(ctx, *exchange)
	if err != nil {
		return err
	}

	w := table(out)
	fmt.Fprintln(w, "SYMBOL\tNAME\tEXCHANGE")
	for _, s := range stocks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Symbol, s.Name, s.Exchange)
	}
	return w.Flush()
}

func cmdStock(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	symbol, err := oneArg(args, "Symbol")
	if err != nil {
		return err
	}
	symbol = strings.ToUpper(symbol)

	quote, err := a.API.StockQuote(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s  %s  %s%%\n", quote.Symbol, quote.Price.StringFixed(2), quote.Change.StringFixed(2))

	news, err := a.API.StockNews(ctx, symbol)
	if err != nil {
		// The catalogue may not know every quoted symbol
		return nil
	}
	for _, n := range news {
		fmt.Fprintf(out, "  %s\n", n.Title)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Favorites
// -----------------------------------------------------------------------------

func cmdFavorite(add bool) func(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	return func(ctx context.Context, a *app.App, out io.Writer, args []string) error {
		symbol, err := oneArg(args, "Symbol")
		if err != nil {
			return err
		}
		symbol = strings.ToUpper(symbol)
		if err := requireUser(a); err != nil {
			return err
		}

		if add {
			if err := a.Session.AddFavorite(ctx, symbol); err != nil {
				return err
			}
			fmt.Fprintf(out, "Added %s to favorites\n", symbol)
			return nil
		}
		if err := a.Session.RemoveFavorite(ctx, symbol); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %s from favorites\n", symbol)
		return nil
	}
}

func cmdFavorites(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if err := requireUser(a); err != nil {
		return err
	}

	stocks := a.API.FavoriteStocks(ctx, a.Session.State().User)
	if len(stocks) == 0 {
		fmt.Fprintln(out, "No favorite stocks")
		return nil
	}

	w := table(out)
	for _, s := range stocks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Symbol, s.Name, s.Exchange)
	}
	return w.Flush()
}

// -----------------------------------------------------------------------------
// Forum
// -----------------------------------------------------------------------------

func cmdForum(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	posts, err := a.API.ListPosts(ctx)
	if err != nil {
		return err
	}

	w := table(out)
	fmt.Fprintln(w, "ID\tVOTES\tAUTHOR\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.ID, p.Upvotes, p.Username, p.Title)
	}
	return w.Flush()
}

func cmdForumShow(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	id, err := oneArg(args, "Post id")
	if err != nil {
		return err
	}

	post, err := a.API.GetPost(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\nby %s | %d upvotes", post.Title, post.Username, post.Upvotes)
	if len(post.Stocks) > 0 {
		fmt.Fprintf(out, " | %s", strings.Join(post.Stocks, ", "))
	}
	fmt.Fprintf(out, "\n\n%s\n", post.Content)

	comments, err := a.API.ListComments(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range comments {
		fmt.Fprintf(out, "\n  %s: %s\n", c.Username, c.Content)
	}
	return nil
}

func cmdPost(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flagSet("post")
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post body")
	stocks := fs.String("stocks", "", "comma-separated symbols")
	if err := fs.Parse(args); err != nil {
		return err
	}

	post, err := a.API.CreatePost(ctx, *title, *content, *stocks)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created post %s\n", post.ID)
	return nil
}

func cmdComment(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if len(args) == 0 {
		return helpers.NewValidationError("Post id is required")
	}

	comment, err := a.API.AddComment(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added comment %s\n", comment.ID)
	return nil
}

func cmdUpvote(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	id, err := oneArg(args, "Post id")
	if err != nil {
		return err
	}

	if err := a.API.UpvotePost(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(out, "Upvoted")
	return nil
}
