package userrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/cache"
	"gousers/internal/pkg/database"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/metrics"
)

// Chave de cache de usuários por id.
const userCacheKey = "user:%d"

const entity = "user"

const selectColumns = `id, first_name, last_name, email, phone, password_hash, country, city, street, role, created_at, updated_at`

// UserRepository persiste usuários em SQL com cache-aside nas leituras por id.
type UserRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando DB e Cache.
func NewUserRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *UserRepository {
	if cacheClient == nil {
		cacheClient = cache.NewNoopClient()
	}
	return &UserRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// cachedUser é a forma serializada no cache; inclui o hash, que domain.User omite no JSON.
type cachedUser struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"passwordHash"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Street       string    `json:"street"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toCached(u domain.User) cachedUser {
	return cachedUser{
		ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Phone: u.Phone,
		PasswordHash: u.PasswordHash, Country: u.Country, City: u.City, Street: u.Street,
		Role: string(u.Role), CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (c cachedUser) toDomain() domain.User {
	return domain.User{
		ID: c.ID, FirstName: c.FirstName, LastName: c.LastName, Email: c.Email, Phone: c.Phone,
		PasswordHash: c.PasswordHash, Country: c.Country, City: c.City, Street: c.Street,
		Role: domain.UserRole(c.Role), CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.Country,
		&u.City,
		&u.Street,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	u.Role = domain.UserRole(role)
	return u, err
}

// Create insere um novo usuário; o id é gerado pelo banco.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (_ domain.User, err error) {
	r.logger.Debug("Iniciando Create de usuário no repositório.", map[string]interface{}{"email": user.Email})
	start := time.Now()
	defer func() { metrics.RecordDatabaseOperation("create", entity, time.Since(start), err) }()

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	const insertSQL = `INSERT INTO users (first_name, last_name, email, phone, password_hash, country, city, street, role, created_at, updated_at)
                       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
                       RETURNING id`

	err = r.DB.QueryRowContext(ctxTimeout, insertSQL,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Country,
		user.City,
		user.Street,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			r.logger.Warn("E-mail duplicado rejeitado pela restrição UNIQUE.", map[string]interface{}{"email": user.Email})
			return domain.User{}, apperror.NewConflictError("o e-mail já está em uso.")
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// FindByID busca um usuário pelo id, utilizando a estratégia Cache-Aside.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (_ domain.User, err error) {
	key := fmt.Sprintf(userCacheKey, id)

	// --- 1. Cache (Redis) ---
	cachedData, cacheErr := r.Cache.Get(ctx, key)
	if cacheErr == nil {
		var cu cachedUser
		if json.Unmarshal([]byte(cachedData), &cu) == nil {
			metrics.RecordCacheHit()
			r.logger.Debug("Usuário servido pelo cache.", map[string]interface{}{"user_id": id})
			return cu.toDomain(), nil
		}
		r.logger.Warn("Entrada de cache corrompida; consultando o banco.", map[string]interface{}{"key": key})
	} else if !errors.Is(cacheErr, cache.ErrCacheMiss) {
		r.logger.Warn("Falha ao ler do cache; consultando o banco.", map[string]interface{}{"key": key, "error": cacheErr.Error()})
	}
	metrics.RecordCacheMiss()

	// --- 2. Banco de Dados ---
	start := time.Now()
	defer func() { metrics.RecordDatabaseOperation("find_by_id", entity, time.Since(start), err) }()

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, `SELECT `+selectColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Usuário não encontrado no DB por id.", map[string]interface{}{"user_id": id})
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("usuário com id %d não encontrado", id))
		}
		r.logger.Error("Falha ao buscar usuário por id no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}

	// --- 3. Popular o cache (falhas não interrompem a leitura) ---
	if payload, mErr := json.Marshal(toCached(user)); mErr == nil {
		if sErr := r.Cache.Set(ctx, key, payload, r.CacheTTL); sErr != nil {
			r.logger.Warn("Falha ao gravar no cache.", map[string]interface{}{"key": key, "error": sErr.Error()})
		}
	}

	return user, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (_ domain.User, err error) {
	r.logger.Debug("Iniciando FindByEmail de usuário no repositório.", map[string]interface{}{"email": email})
	start := time.Now()
	defer func() { metrics.RecordDatabaseOperation("find_by_email", entity, time.Since(start), err) }()

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, `SELECT `+selectColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("Usuário não encontrado no DB por email.", map[string]interface{}{"email": email})
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("usuário com email '%s' não encontrado", email))
		}
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by email", err)
	}

	return user, nil
}

// FindAllPaged retorna a página solicitada em ordem crescente de id e o total de registros.
func (r *UserRepository) FindAllPaged(ctx context.Context, page, size int) (_ []domain.User, _ int64, err error) {
	r.logger.Debug("Iniciando FindAllPaged no repositório.", map[string]interface{}{"page": page, "size": size})
	start := time.Now()
	defer func() { metrics.RecordDatabaseOperation("find_all_paged", entity, time.Since(start), err) }()

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int64
	if err = r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar usuários no DB.", err)
		return nil, 0, apperror.NewDBError("failed to count users", err)
	}

	offset, ok := pageOffset(page, size)
	if !ok || offset >= total {
		return []domain.User{}, total, nil
	}

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT `+selectColumns+` FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`,
		size, offset,
	)
	if err != nil {
		r.logger.Error("Falha ao listar usuários no DB.", err)
		return nil, 0, apperror.NewDBError("failed to list users", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, size)
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			err = scanErr
			r.logger.Error("Falha ao mapear usuário listado.", err)
			return nil, 0, apperror.NewDBError("failed to scan user", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Falha ao iterar usuários listados.", err)
		return nil, 0, apperror.NewDBError("failed to iterate users", err)
	}

	return users, total, nil
}

// pageOffset calcula page*size em int64; ok é false para valores negativos ou que estourariam.
func pageOffset(page, size int) (offset int64, ok bool) {
	if page < 0 || size < 1 || int64(page) > math.MaxInt64/int64(size) {
		return 0, false
	}
	return int64(page) * int64(size), true
}

// Save atualiza todos os campos mutáveis de um usuário existente.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (_ domain.User, err error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"user_id": user.ID})
	start := time.Now()
	defer func() { metrics.RecordDatabaseOperation("save", entity, time.Since(start), err) }()

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.UpdatedAt = time.Now().UTC()

	const updateSQL = `UPDATE users
                       SET first_name = $1, last_name = $2, email = $3, phone = $4, password_hash = $5,
                           country = $6, city = $7, street = $8, role = $9, updated_at = $10
                       WHERE id = $11`

	res, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Country,
		user.City,
		user.Street,
		string(user.Role),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			r.logger.Warn("Atualização rejeitada: e-mail já pertence a outro usuário.", map[string]interface{}{"user_id": user.ID})
			return domain.User{}, apperror.NewConflictError("o e-mail já está em uso.")
		}
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to update user", err)
	}

	if err = r.expectOneRow(res, user.ID); err != nil {
		return domain.User{}, err
	}

	r.invalidate(ctx, user.ID)
	r.logger.Info("Usuário atualizado no repositório.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Delete remove o usuário definitivamente.
func (r *UserRepository) Delete(ctx context.Context, id int64) (err error) {
	r.logger.Debug("Iniciando Delete de usuário no repositório.", map[string]interface{}{"user_id": id})
	start := time.Now()
	defer func() { metrics.RecordDatabaseOperation("delete", entity, time.Since(start), err) }()

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover usuário no DB.", err)
		return apperror.NewDBError("failed to delete user", err)
	}

	if err = r.expectOneRow(res, id); err != nil {
		return err
	}

	r.invalidate(ctx, id)
	r.logger.Info("Usuário removido do repositório.", map[string]interface{}{"user_id": id})
	return nil
}

func (r *UserRepository) expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read rows affected", err)
	}
	if n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("usuário com id %d não encontrado", id))
	}
	return nil
}

// invalidate remove a entrada do cache; uma falha aqui só é registrada.
func (r *UserRepository) invalidate(ctx context.Context, id int64) {
	key := fmt.Sprintf(userCacheKey, id)
	if err := r.Cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Falha ao invalidar cache do usuário.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
