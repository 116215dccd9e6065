package repomanager

import (
	"context"
	"database/sql"

	"github.com/hubpessoal/hub/internal/dbx"
	"github.com/hubpessoal/hub/internal/server/repositories/conversations"
	"github.com/hubpessoal/hub/internal/server/repositories/ebooks"
	"github.com/hubpessoal/hub/internal/server/repositories/games"
	"github.com/hubpessoal/hub/internal/server/repositories/media"
	"github.com/hubpessoal/hub/internal/server/repositories/notes"
	"github.com/hubpessoal/hub/internal/server/repositories/playlists"
	"github.com/hubpessoal/hub/internal/server/repositories/refreshtokens"
	"github.com/hubpessoal/hub/internal/server/repositories/transactions"
	"github.com/hubpessoal/hub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Games(db dbx.DBTX) games.Repository
	Notes(db dbx.DBTX) notes.Repository
	Media(db dbx.DBTX) media.Repository
	Playlists(db dbx.DBTX) playlists.Repository
	Ebooks(db dbx.DBTX) ebooks.Repository
	Conversations(db dbx.DBTX) conversations.Repository
}
