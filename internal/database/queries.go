package database

const (
	// Company queries
	queryInsertCompany = `
		INSERT INTO companies (id, identifier, secret, name) VALUES (?, ?, ?, ?)`

	queryGetCompanyByIdentifier = `
		SELECT id, identifier, secret, name, created_at, updated_at
		FROM companies
		WHERE identifier = ?`

	queryUpdateCompanyName = `
		UPDATE companies SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	queryGetCompanyById = `
		SELECT id, identifier, secret, name, created_at, updated_at
		FROM companies
		WHERE id = ?`

	queryDeleteCompany = `
		DELETE FROM companies WHERE id = ?`

	// User queries
	queryInsertUser = `
		INSERT INTO users (id, identifier, company_id) VALUES (?, ?, ?)`

	queryGetUserByIdentifier = `
		SELECT id, identifier, company_id, created_at, updated_at
		FROM users
		WHERE company_id = ? AND identifier = ?`

	// Currency queries
	queryInsertCurrency = `
		INSERT INTO currencies (id, company_id, code, description, symbol, unit, divisibility, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, code) DO UPDATE SET
			description = excluded.description,
			symbol = excluded.symbol,
			unit = excluded.unit,
			divisibility = excluded.divisibility,
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP`

	queryListCurrencies = `
		SELECT id, company_id, code, description, symbol, unit, divisibility, enabled, created_at, updated_at
		FROM currencies
		WHERE company_id = ?
		ORDER BY code`

	queryGetCurrency = `
		SELECT id, company_id, code, description, symbol, unit, divisibility, enabled, created_at, updated_at
		FROM currencies
		WHERE company_id = ? AND code = ? COLLATE NOCASE`

	// Sale queries
	queryInsertIco = `
		INSERT INTO icos (
			id, company_id, currency_code, amount, amount_remaining,
			base_currency_code, base_goal_amount, min_purchase_amount,
			max_purchase_amount, max_purchases, status, public, enabled
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	icoColumns = `
		id, company_id, currency_code, amount, amount_remaining,
		base_currency_code, base_goal_amount, min_purchase_amount,
		max_purchase_amount, max_purchases, status, public, enabled,
		deleted, version, created_at, updated_at`

	queryListIcos = `
		SELECT ` + icoColumns + `
		FROM icos
		WHERE company_id = ? AND deleted = 0
		ORDER BY created_at`

	queryGetIco = `
		SELECT ` + icoColumns + `
		FROM icos
		WHERE company_id = ? AND id = ? AND deleted = 0`

	queryGetIcoById = `
		SELECT ` + icoColumns + `
		FROM icos
		WHERE id = ? AND deleted = 0`

	queryGetEnabledIco = `
		SELECT ` + icoColumns + `
		FROM icos
		WHERE company_id = ? AND enabled = 1 AND deleted = 0
		LIMIT 1`

	queryUpdateIco = `
		UPDATE icos SET
			amount = ?, amount_remaining = ?, base_goal_amount = ?,
			min_purchase_amount = ?, max_purchase_amount = ?, max_purchases = ?,
			status = ?, public = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted = 0`

	queryDisableSiblingIcos = `
		UPDATE icos SET enabled = 0, updated_at = CURRENT_TIMESTAMP
		WHERE company_id = ? AND id != ? AND enabled = 1 AND deleted = 0`

	querySoftDeleteIco = `
		UPDATE icos SET deleted = 1, enabled = 0, updated_at = CURRENT_TIMESTAMP
		WHERE company_id = ? AND id = ? AND deleted = 0`

	queryGetIcoRemainingForUpdate = `
		SELECT amount_remaining
		FROM icos
		WHERE id = ? AND version = ? AND deleted = 0`

	queryDeductIcoAmount = `
		UPDATE icos SET
			amount_remaining = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Phase queries
	queryInsertPhase = `
		INSERT INTO phases (id, ico_id, level, percentage, base_rate)
		VALUES (?, ?, ?, ?, ?)`

	queryListPhases = `
		SELECT id, ico_id, level, percentage, base_rate, deleted, created_at, updated_at
		FROM phases
		WHERE ico_id = ? AND deleted = 0
		ORDER BY level`

	queryGetPhase = `
		SELECT id, ico_id, level, percentage, base_rate, deleted, created_at, updated_at
		FROM phases
		WHERE ico_id = ? AND id = ? AND deleted = 0`

	queryGetPhaseById = `
		SELECT id, ico_id, level, percentage, base_rate, deleted, created_at, updated_at
		FROM phases
		WHERE id = ? AND deleted = 0`

	querySumPhasePercentages = `
		SELECT COALESCE(SUM(percentage), 0)
		FROM phases
		WHERE ico_id = ? AND deleted = 0`

	querySoftDeletePhase = `
		UPDATE phases SET deleted = 1, updated_at = CURRENT_TIMESTAMP
		WHERE ico_id = ? AND id = ? AND deleted = 0`

	// Rate queries
	queryUpsertRate = `
		INSERT INTO rates (id, phase_id, currency_code, rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(phase_id, currency_code) DO UPDATE SET
			rate = excluded.rate,
			updated_at = CURRENT_TIMESTAMP`

	queryGetRateByPhaseCurrency = `
		SELECT id, phase_id, currency_code, rate, created_at, updated_at
		FROM rates
		WHERE phase_id = ? AND currency_code = ?`

	queryListRates = `
		SELECT id, phase_id, currency_code, rate, created_at, updated_at
		FROM rates
		WHERE phase_id = ?
		ORDER BY currency_code`

	queryGetRate = `
		SELECT id, phase_id, currency_code, rate, created_at, updated_at
		FROM rates
		WHERE phase_id = ? AND id = ?`

	// Quote queries
	queryInsertQuote = `
		INSERT INTO quotes (id, user_id, phase_id, deposit_currency_code, deposit_amount, token_amount, rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	quoteColumns = `
		id, user_id, phase_id, deposit_currency_code, deposit_amount, token_amount, rate, created_at`

	queryGetQuoteById = `
		SELECT ` + quoteColumns + `
		FROM quotes
		WHERE id = ?`

	queryGetUserQuote = `
		SELECT q.id, q.user_id, q.phase_id, q.deposit_currency_code,
		       q.deposit_amount, q.token_amount, q.rate, q.created_at
		FROM quotes q
		JOIN phases p ON q.phase_id = p.id
		WHERE q.id = ? AND q.user_id = ? AND p.ico_id = ?`

	queryListUserQuotes = `
		SELECT q.id, q.user_id, q.phase_id, q.deposit_currency_code,
		       q.deposit_amount, q.token_amount, q.rate, q.created_at
		FROM quotes q
		JOIN phases p ON q.phase_id = p.id
		WHERE q.user_id = ? AND p.ico_id = ?
		ORDER BY q.created_at DESC`

	queryListIcoQuotes = `
		SELECT q.id, q.user_id, q.phase_id, q.deposit_currency_code,
		       q.deposit_amount, q.token_amount, q.rate, q.created_at
		FROM quotes q
		JOIN phases p ON q.phase_id = p.id
		WHERE p.ico_id = ?
		ORDER BY q.created_at DESC`

	queryFindReusableQuote = `
		SELECT ` + quoteColumns + `
		FROM quotes
		WHERE user_id = ? AND phase_id = ? AND deposit_amount = ?
		  AND deposit_currency_code = ? AND created_at >= ?
		  AND id NOT IN (SELECT quote_id FROM purchases)
		ORDER BY created_at DESC
		LIMIT 1`

	queryDeleteUnconsumedQuotes = `
		DELETE FROM quotes
		WHERE user_id = ? AND phase_id = ? AND deposit_amount = ?
		  AND deposit_currency_code = ?
		  AND id NOT IN (SELECT quote_id FROM purchases)`

	queryCountConsumedQuotes = `
		SELECT COUNT(*)
		FROM quotes q
		JOIN purchases pu ON pu.quote_id = q.id
		JOIN phases p ON q.phase_id = p.id
		WHERE q.user_id = ? AND p.ico_id = ?`

	// Purchase queries
	queryCheckDuplicatePurchase = `
		SELECT id FROM purchases WHERE deposit_tx_id = ? OR token_tx_id = ? LIMIT 1`

	queryInsertPurchase = `
		INSERT INTO purchases (id, quote_id, deposit_tx_id, status, metadata)
		VALUES (?, ?, ?, ?, ?)`

	querySetPurchaseTokenTx = `
		UPDATE purchases SET token_tx_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	purchaseColumns = `
		id, quote_id, deposit_tx_id, COALESCE(token_tx_id, ''), status, metadata, created_at, updated_at`

	queryGetPurchaseByTxId = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE deposit_tx_id = ? OR token_tx_id = ?
		LIMIT 1`

	queryGetPendingPurchaseByDepositTx = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE deposit_tx_id = ? AND token_tx_id IS NOT NULL AND status = 'pending'`

	queryUpdatePurchaseStatus = `
		UPDATE purchases SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	queryInsertPurchaseMessage = `
		INSERT INTO purchase_messages (id, purchase_id, message) VALUES (?, ?, ?)`

	queryListPurchaseMessages = `
		SELECT id, purchase_id, message, created_at
		FROM purchase_messages
		WHERE purchase_id = ?
		ORDER BY created_at`

	queryListIcoPurchases = `
		SELECT pu.id, pu.quote_id, pu.deposit_tx_id, COALESCE(pu.token_tx_id, ''),
		       pu.status, pu.metadata, pu.created_at, pu.updated_at
		FROM purchases pu
		JOIN quotes q ON pu.quote_id = q.id
		JOIN phases p ON q.phase_id = p.id
		WHERE p.ico_id = ?
		ORDER BY pu.created_at DESC`

	queryListUserPurchases = `
		SELECT pu.id, pu.quote_id, pu.deposit_tx_id, COALESCE(pu.token_tx_id, ''),
		       pu.status, pu.metadata, pu.created_at, pu.updated_at
		FROM purchases pu
		JOIN quotes q ON pu.quote_id = q.id
		JOIN phases p ON q.phase_id = p.id
		WHERE q.user_id = ? AND p.ico_id = ?
		ORDER BY pu.created_at DESC`

	queryGetIcoPurchase = `
		SELECT pu.id, pu.quote_id, pu.deposit_tx_id, COALESCE(pu.token_tx_id, ''),
		       pu.status, pu.metadata, pu.created_at, pu.updated_at
		FROM purchases pu
		JOIN quotes q ON pu.quote_id = q.id
		JOIN phases p ON q.phase_id = p.id
		WHERE p.ico_id = ? AND pu.id = ?`
)
