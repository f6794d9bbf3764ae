package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"cyclechain/native/auction"
	"cyclechain/native/token"
)

// Domain rejections keep stable codes so clients can branch on them.
const (
	codeTooSoon           = -32030
	codeNothingToClaim    = -32031
	codeNothingToSettle   = -32032
	codeUnsupportedAsset  = -32033
	codeWalletCapExceeded = -32034
	codeAlreadyConfigured = -32035
	codeTokenRejected     = -32036
)

func errorCode(err error) int {
	switch {
	case errors.Is(err, auction.ErrInvalidAmount),
		errors.Is(err, auction.ErrZeroAddress),
		errors.Is(err, auction.ErrUnknownPool),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrZeroAddress):
		return codeInvalidParams
	case errors.Is(err, auction.ErrTooSoon):
		return codeTooSoon
	case errors.Is(err, auction.ErrNothingToClaim):
		return codeNothingToClaim
	case errors.Is(err, auction.ErrNothingToSettle):
		return codeNothingToSettle
	case errors.Is(err, auction.ErrUnsupportedAsset):
		return codeUnsupportedAsset
	case errors.Is(err, auction.ErrWalletCapExceeded):
		return codeWalletCapExceeded
	case errors.Is(err, auction.ErrAlreadyConfigured),
		errors.Is(err, token.ErrAlreadyConfigured):
		return codeAlreadyConfigured
	case errors.Is(err, token.ErrBlacklisted),
		errors.Is(err, token.ErrAlreadyBlacklisted),
		errors.Is(err, token.ErrNotBlacklisted),
		errors.Is(err, token.ErrAlreadyBurner),
		errors.Is(err, token.ErrNotBurner),
		errors.Is(err, token.ErrBurnNotAllowed),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrUnauthorizedRegistry),
		errors.Is(err, token.ErrMintCapExceeded):
		return codeTokenRejected
	default:
		return codeServerError
	}
}

func writeDomainError(w http.ResponseWriter, id interface{}, err error) {
	code := errorCode(err)
	status := http.StatusUnprocessableEntity
	if code == codeInvalidParams {
		status = http.StatusBadRequest
	} else if code == codeServerError {
		status = http.StatusInternalServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}

func parseParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("missing params object")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return addr, fmt.Errorf("invalid address %q", value)
	}
	copy(addr[:], raw)
	return addr, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func parsePool(value string) (auction.PoolID, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "currency", "currency-yield":
		return auction.PoolCurrencyYield, nil
	case "token", "token-yield":
		return auction.PoolTokenYield, nil
	default:
		return 0, fmt.Errorf("invalid pool %q", value)
	}
}

func parseTimeline(value string) (auction.TimelineKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "contributions":
		return auction.TimelineContributions, nil
	case "stakes":
		return auction.TimelineStakes, nil
	case "lpstakes":
		return auction.TimelineLPStakes, nil
	default:
		return 0, fmt.Errorf("invalid timeline %q", value)
	}
}

func hexAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

type addressAmountParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type addressEpochParams struct {
	Address string `json:"address"`
	Epoch   uint64 `json:"epoch"`
}

type epochResult struct {
	Epoch uint64 `json:"epoch"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

func (s *Server) handleContribute(w http.ResponseWriter, req *RPCRequest) {
	var params addressAmountParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.ledger.Contribute(user, amount)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, epochResult{Epoch: id})
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params addressEpochParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	paid, err := s.ledger.Claim(user, params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: paid.String()})
}

func (s *Server) handlePreviewClaim(w http.ResponseWriter, req *RPCRequest) {
	var params addressEpochParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.ledger.PreviewClaim(user, params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

type currentEpochResult struct {
	Epoch uint64 `json:"epoch"`
	Count int    `json:"count"`
}

func (s *Server) handleCurrentEpoch(w http.ResponseWriter, req *RPCRequest) {
	count, err := s.ledger.EpochCount()
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, currentEpochResult{Epoch: s.ledger.CurrentEpoch(), Count: count})
}

type epochInfoParams struct {
	Epoch uint64 `json:"epoch"`
}

type epochInfoResult struct {
	Epoch             uint64 `json:"epoch"`
	TotalContribution string `json:"totalContribution"`
	MintQuota         string `json:"mintQuota"`
}

func (s *Server) handleEpochInfo(w http.ResponseWriter, req *RPCRequest) {
	var params epochInfoParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	info, ok, err := s.ledger.EpochInfo(params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "epoch not found", nil)
		return
	}
	writeResult(w, req.ID, epochInfoResult{
		Epoch:             params.Epoch,
		TotalContribution: info.TotalContribution.String(),
		MintQuota:         info.MintQuota.String(),
	})
}

type contributionResult struct {
	Epoch   uint64 `json:"epoch"`
	Amount  string `json:"amount"`
	Claimed bool   `json:"claimed"`
}

func (s *Server) handleContribution(w http.ResponseWriter, req *RPCRequest) {
	var params addressEpochParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	c, ok, err := s.ledger.ContributionOf(user, params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "contribution not found", nil)
		return
	}
	writeResult(w, req.ID, contributionResult{Epoch: params.Epoch, Amount: c.Amount.String(), Claimed: c.Claimed})
}

type timelineParams struct {
	Address  string `json:"address"`
	Timeline string `json:"timeline"`
}

type timelineResult struct {
	Epochs []uint64 `json:"epochs"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, req *RPCRequest) {
	var params timelineParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	kind, err := parseTimeline(params.Timeline)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	ids, err := s.ledger.TimelineOf(kind, user)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeResult(w, req.ID, timelineResult{Epochs: ids})
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleTotalContributed(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	total, err := s.ledger.TotalContributed(user)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: total.String()})
}

func (s *Server) handleRegisterPair(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.RegisterPair(addr); err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleStakeOpen(w http.ResponseWriter, req *RPCRequest) {
	var params addressAmountParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.ledger.OpenStake(user, amount)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, epochResult{Epoch: id})
}

type settleResult struct {
	Principal string `json:"principal"`
	Yield     string `json:"yield"`
}

func (s *Server) handleStakeSettle(w http.ResponseWriter, req *RPCRequest) {
	var params addressEpochParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	principal, yield, err := s.ledger.SettleStake(user, params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, settleResult{Principal: principal.String(), Yield: yield.String()})
}

type stakePreviewParams struct {
	Address string `json:"address"`
	Pool    string `json:"pool"`
	Epoch   uint64 `json:"epoch"`
}

func (s *Server) handleStakePreview(w http.ResponseWriter, req *RPCRequest) {
	var params stakePreviewParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pool, err := parsePool(params.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.ledger.PreviewYield(pool, user, params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

type positionResult struct {
	Epoch     uint64 `json:"epoch"`
	Principal string `json:"principal"`
}

func (s *Server) handleStakePosition(w http.ResponseWriter, req *RPCRequest) {
	var params stakePreviewParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pool, err := parsePool(params.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pos, ok, err := s.ledger.PositionOf(pool, user, params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "position not found", nil)
		return
	}
	writeResult(w, req.ID, positionResult{Epoch: params.Epoch, Principal: pos.Principal.String()})
}

type lpStakeOpenParams struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	Amount  string `json:"amount"`
}

func (s *Server) handleLPStakeOpen(w http.ResponseWriter, req *RPCRequest) {
	var params lpStakeOpenParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	lpToken, err := parseAddress(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.ledger.OpenLPStake(user, lpToken, amount)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, epochResult{Epoch: id})
}

func (s *Server) handleLPStakeSettle(w http.ResponseWriter, req *RPCRequest) {
	var params addressEpochParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	principal, yield, err := s.ledger.SettleLPStake(user, params.Epoch)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, settleResult{Principal: principal.String(), Yield: yield.String()})
}

type poolInfoParams struct {
	Pool string `json:"pool"`
}

type poolInfoResult struct {
	Pool           string `json:"pool"`
	TotalPrincipal string `json:"totalPrincipal"`
	Index          string `json:"index"`
	Retained       string `json:"retained"`
}

func (s *Server) handlePoolInfo(w http.ResponseWriter, req *RPCRequest) {
	var params poolInfoParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pool, err := parsePool(params.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	info, err := s.ledger.PoolInfo(pool)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, poolInfoResult{
		Pool:           strings.ToLower(strings.TrimSpace(params.Pool)),
		TotalPrincipal: info.TotalPrincipal.String(),
		Index:          info.Index.String(),
		Retained:       info.Retained.String(),
	})
}

type beneficiaryResult struct {
	Currency string `json:"currency"`
	Token    string `json:"token"`
	LPToken  string `json:"lpToken"`
}

func (s *Server) handleBeneficiaryInfo(w http.ResponseWriter, req *RPCRequest) {
	info, err := s.ledger.BeneficiaryInfo()
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, beneficiaryResult{
		Currency: info.Currency.String(),
		Token:    info.Token.String(),
		LPToken:  info.LPToken.String(),
	})
}

func (s *Server) handleBeneficiaryWithdraw(w http.ResponseWriter, req *RPCRequest) {
	currency, tokenOut, lpToken, err := s.ledger.WithdrawBeneficiary()
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, beneficiaryResult{
		Currency: currency.String(),
		Token:    tokenOut.String(),
		LPToken:  lpToken.String(),
	})
}

type custodyResult struct {
	Currency string `json:"currency"`
	LPToken  string `json:"lpToken"`
}

func (s *Server) handleCustodyInfo(w http.ResponseWriter, req *RPCRequest) {
	info, err := s.ledger.CustodyInfo()
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, custodyResult{Currency: info.Currency.String(), LPToken: info.LPToken.String()})
}

type balanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.ledger.TokenBalance(addr)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Address: hexAddress(addr), Balance: balance.String()})
}

func (s *Server) handleTokenSupply(w http.ResponseWriter, req *RPCRequest) {
	supply, err := s.ledger.TokenSupply()
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: supply.String()})
}

func (s *Server) handleTokenIsBlacklisted(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	blocked, err := s.ledger.IsBlacklisted(addr)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, blocked)
}

type registryParams struct {
	Caller  string `json:"caller"`
	Address string `json:"address"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleTokenSetBlacklisted(w http.ResponseWriter, req *RPCRequest) {
	var params registryParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if params.Enabled {
		err = s.ledger.AddToBlacklist(caller, addr)
	} else {
		err = s.ledger.RemoveFromBlacklist(caller, addr)
	}
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleTokenSetBurner(w http.ResponseWriter, req *RPCRequest) {
	var params registryParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if params.Enabled {
		err = s.ledger.AddBurner(caller, addr)
	} else {
		err = s.ledger.RemoveBurner(caller, addr)
	}
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleTokenBurn(w http.ResponseWriter, req *RPCRequest) {
	var params addressAmountParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.Burn(caller, amount); err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}
