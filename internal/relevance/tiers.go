package relevance

// fillTiers places confidence-sorted items into tiers under budget and
// returns the tokens spent.
//
// Only the essential override may push the total past MaxFiles. The token
// budget stops the fill once essential and contextual quotas are met; before
// that an item is placed even if it overdraws the budget. Essential counts
// as met once an item falls below MinEssentialConfidence, since items are
// sorted and no later item can enter it through the quota.
func fillTiers(items []KnowledgeItem, b Budget, cfg TieringConfig) (Tiers, int) {
	var tiers Tiers
	quota := cfg.quota(b.MaxFiles)
	fileQuota := 2 * quota
	if fileQuota > b.MaxFiles {
		fileQuota = b.MaxFiles
	}

	remaining := b.MaxTokens
	for _, item := range items {
		cost := item.TokenCost()
		if remaining-cost < 0 && quotasMet(tiers, item, quota, fileQuota, cfg) {
			break
		}

		total := tiers.Len()
		switch {
		case item.Confidence >= cfg.EssentialOverride,
			len(tiers.Essential) < quota && item.Confidence >= cfg.MinEssentialConfidence && total < b.MaxFiles:
			tiers.Essential = append(tiers.Essential, item)
		case total >= b.MaxFiles:
			continue
		case len(tiers.Contextual) < quota || item.Confidence >= cfg.ContextualOverride:
			tiers.Contextual = append(tiers.Contextual, item)
		default:
			tiers.Reference = append(tiers.Reference, item)
		}
		remaining -= cost
	}
	return tiers, b.MaxTokens - remaining
}

func quotasMet(tiers Tiers, next KnowledgeItem, quota, fileQuota int, cfg TieringConfig) bool {
	if len(tiers.Essential)+len(tiers.Contextual) >= fileQuota {
		return true
	}
	essentialClosed := len(tiers.Essential) >= quota || next.Confidence < cfg.MinEssentialConfidence
	return essentialClosed && len(tiers.Contextual) >= quota
}
