package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate key")

// uniqueViolation はPostgreSQLの一意制約違反エラーコード。
const uniqueViolation = "23505"

// translateError は一意制約違反をErrDuplicateでラップする。それ以外はそのまま返す。
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

// isUUID はUUID形式かどうかを返す。
// UUID列に不正な文字列を渡すとクエリ自体がエラーになるため、事前に判定して「存在しない」として扱う。
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// uuidsOnly はUUID形式の要素だけを残したスライスを返す。
func uuidsOnly(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			out = append(out, id)
		}
	}
	return out
}
