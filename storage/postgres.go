package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"yojiquiz/catalog"
	"yojiquiz/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

// LoadQuizItems implements catalog.Source.
func (pgr *PostgresRepo) LoadQuizItems(ctx context.Context) ([]catalog.Item, error) {
	rows, err := pgr.pool.Query(ctx, "SELECT word, meaning FROM quiz_items ORDER BY id")
	if err != nil {
		return nil, wrapDatabaseError(err)
	}
	defer rows.Close()

	items := []catalog.Item{}
	for rows.Next() {
		var item catalog.Item
		if err := rows.Scan(&item.Word, &item.Meaning); err != nil {
			return nil, wrapDatabaseError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDatabaseError(err)
	}
	return items, nil
}

func (pgr *PostgresRepo) SaveResult(ctx context.Context, result domain.SessionResult) error {
	tx, err := pgr.pool.Begin(ctx)
	if err != nil {
		return wrapDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		"INSERT INTO session_results(room_code, mode, total_questions, finished_at) VALUES($1, $2, $3, $4) RETURNING id",
		result.RoomCode, result.Mode, result.TotalQuestions, result.FinishedAt,
	).Scan(&id)
	if err != nil {
		return wrapDatabaseError(err)
	}

	batch := &pgx.Batch{}
	for _, entry := range result.Ranking {
		batch.Queue(
			"INSERT INTO session_scores(result_id, rank, player_id, name, score) VALUES($1, $2, $3, $4, $5)",
			id, entry.Rank, entry.PlayerID, entry.Name, entry.Score,
		)
	}
	for seq, a := range result.Answers {
		batch.Queue(
			"INSERT INTO session_answers(result_id, seq, player_id, question_index, correct_answer, submitted_answer, is_correct, points, timed_out) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)",
			id, seq, a.PlayerID, a.QuestionIndex, a.CorrectAnswer, a.SubmittedAnswer, a.IsCorrect, a.Points, a.TimedOut,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDatabaseError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDatabaseError(err)
	}
	return nil
}

// GetResult returns the most recent finished session played under code.
func (pgr *PostgresRepo) GetResult(ctx context.Context, code string) (domain.SessionResult, error) {
	result := domain.SessionResult{RoomCode: code}
	var id int64

	err := pgr.pool.QueryRow(ctx,
		"SELECT id, mode, total_questions, finished_at FROM session_results WHERE room_code = $1 ORDER BY finished_at DESC, id DESC LIMIT 1",
		code,
	).Scan(&id, &result.Mode, &result.TotalQuestions, &result.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SessionResult{}, domain.ErrNotFound
		}
		return domain.SessionResult{}, wrapDatabaseError(err)
	}

	rows, err := pgr.pool.Query(ctx, "SELECT rank, player_id, name, score FROM session_scores WHERE result_id = $1 ORDER BY rank", id)
	if err != nil {
		return domain.SessionResult{}, wrapDatabaseError(err)
	}
	defer rows.Close()

	result.Ranking = []domain.RankEntry{}
	for rows.Next() {
		var entry domain.RankEntry
		if err := rows.Scan(&entry.Rank, &entry.PlayerID, &entry.Name, &entry.Score); err != nil {
			return domain.SessionResult{}, wrapDatabaseError(err)
		}
		result.Ranking = append(result.Ranking, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.SessionResult{}, wrapDatabaseError(err)
	}

	answers, err := pgr.pool.Query(ctx,
		"SELECT player_id, question_index, correct_answer, submitted_answer, is_correct, points, timed_out FROM session_answers WHERE result_id = $1 ORDER BY seq",
		id,
	)
	if err != nil {
		return domain.SessionResult{}, wrapDatabaseError(err)
	}
	result.Answers, err = pgx.CollectRows(answers, func(row pgx.CollectableRow) (domain.AnswerEntry, error) {
		var a domain.AnswerEntry
		err := row.Scan(&a.PlayerID, &a.QuestionIndex, &a.CorrectAnswer, &a.SubmittedAnswer, &a.IsCorrect, &a.Points, &a.TimedOut)
		return a, err
	})
	if err != nil {
		return domain.SessionResult{}, wrapDatabaseError(err)
	}
	return result, nil
}

func wrapDatabaseError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (%s)", domain.UnexpectedDatabaseError, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}
