package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	// O layout exato das chaves faz parte do contrato com qualquer
	// implementação substituta do store
	assert.Equal(t, "flashsale:stock:product-1", stockKey("product-1"))
	assert.Equal(t, "flashsale:attempted:product-1", attemptedKey("product-1"))
	assert.Equal(t, "flashsale:result:user-1:product-1", resultKey("user-1", "product-1"))
}

func TestResultTTL(t *testing.T) {
	assert.Equal(t, float64(86400), resultTTL.Seconds())
}

func TestParseReserveReply(t *testing.T) {
	// Arrange
	granted := []interface{}{int64(1), int64(2), int64(1)}
	denied := []interface{}{int64(0), int64(0), int64(1)}
	repeat := []interface{}{int64(0), int64(5), int64(0)}

	// Act
	grantedResult, err1 := parseReserveReply(granted)
	deniedResult, err2 := parseReserveReply(denied)
	repeatResult, err3 := parseReserveReply(repeat)

	// Assert
	assert.NoError(t, err1)
	assert.Equal(t, ReserveResult{Granted: true, Remaining: 2, FirstAttempt: true}, grantedResult)
	assert.NoError(t, err2)
	assert.Equal(t, ReserveResult{Granted: false, Remaining: 0, FirstAttempt: true}, deniedResult)
	assert.NoError(t, err3)
	assert.Equal(t, ReserveResult{Granted: false, Remaining: 5, FirstAttempt: false}, repeatResult)
}

func TestParseReserveReply_Malformed(t *testing.T) {
	_, err := parseReserveReply("not a table")
	assert.Error(t, err)

	_, err = parseReserveReply([]interface{}{int64(1)})
	assert.Error(t, err)

	_, err = parseReserveReply([]interface{}{"1", "2", "1"})
	assert.Error(t, err)
}

func TestParseStatusReply(t *testing.T) {
	// Arrange
	pending := []interface{}{int64(1), int64(0), ""}
	succeeded := []interface{}{int64(1), int64(1), "1"}
	failed := []interface{}{int64(1), int64(1), "0"}
	neverTried := []interface{}{int64(0), int64(0), ""}

	// Act
	pendingStatus, err1 := parseStatusReply(pending)
	successStatus, err2 := parseStatusReply(succeeded)
	failedStatus, err3 := parseStatusReply(failed)
	untriedStatus, err4 := parseStatusReply(neverTried)

	// Assert
	assert.NoError(t, err1)
	assert.Equal(t, AttemptStatus{Attempted: true, HasResult: false, Result: ResultUnknown}, pendingStatus)
	assert.NoError(t, err2)
	assert.Equal(t, AttemptStatus{Attempted: true, HasResult: true, Result: ResultSuccess}, successStatus)
	assert.NoError(t, err3)
	assert.Equal(t, AttemptStatus{Attempted: true, HasResult: true, Result: ResultFailed}, failedStatus)
	assert.NoError(t, err4)
	assert.Equal(t, AttemptStatus{Attempted: false, HasResult: false, Result: ResultUnknown}, untriedStatus)
}

func TestFakeStore_MatchesScriptSemantics(t *testing.T) {
	// O fake usado nos testes de concorrência precisa espelhar os quatro
	// caminhos do script de reserva
	store := newFakeReservationStore()
	ctx := context.Background()

	assert.NoError(t, store.InitStock(ctx, "p", 1))

	// Primeira tentativa: concedida
	first, err := store.TryReserve(ctx, "p", "u1")
	assert.NoError(t, err)
	assert.Equal(t, ReserveResult{Granted: true, Remaining: 0, FirstAttempt: true}, first)

	// Repetição: negada sem decremento
	repeat, err := store.TryReserve(ctx, "p", "u1")
	assert.NoError(t, err)
	assert.False(t, repeat.Granted)
	assert.False(t, repeat.FirstAttempt)

	// Outro usuário sem estoque: marcado como tentativa mesmo assim
	denied, err := store.TryReserve(ctx, "p", "u2")
	assert.NoError(t, err)
	assert.False(t, denied.Granted)
	assert.True(t, denied.FirstAttempt)

	status, err := store.GetStatus(ctx, "u2", "p")
	assert.NoError(t, err)
	assert.True(t, status.Attempted)
}
