package planner

import "english_tutor_backend/internal/model"

// Sample draws up to k units uniformly without replacement.
func Sample(rng Rand, pool []model.LearningUnit, k int) []model.LearningUnit {
	if k > len(pool) {
		k = len(pool)
	}
	if k <= 0 {
		return nil
	}
	work := make([]model.LearningUnit, len(pool))
	copy(work, pool)
	// partial Fisher-Yates
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:k]
}

// Structure turns a filtered pool into the ordered items of a lesson.
func Structure(rng Rand, policy SelectionPolicy, pool []model.LearningUnit, k int) []model.LearningUnit {
	if policy == PolicyBalanced {
		return balanced(rng, pool, k)
	}
	return Sample(rng, pool, k)
}

// balanced reserves one grammar rule, up to half the slots for exercises and
// one vocabulary or dialogue unit, fills the rest from whatever remains and
// shuffles the result.
func balanced(rng Rand, pool []model.LearningUnit, k int) []model.LearningUnit {
	if k > len(pool) {
		k = len(pool)
	}
	if k <= 0 {
		return nil
	}

	var grammar, exercises, vocab, other []model.LearningUnit
	for _, u := range pool {
		switch u.Type {
		case model.UnitGrammarRule:
			grammar = append(grammar, u)
		case model.UnitExercise, model.UnitReviewExercise:
			exercises = append(exercises, u)
		case model.UnitVocabulary, model.UnitDialogue:
			vocab = append(vocab, u)
		default:
			other = append(other, u)
		}
	}

	picked := make([]model.LearningUnit, 0, k)
	var rest []model.LearningUnit

	take := func(bucket []model.LearningUnit, n int) {
		n = min(n, k-len(picked))
		chosen := Sample(rng, bucket, n)
		picked = append(picked, chosen...)
		rest = append(rest, without(bucket, chosen)...)
	}

	take(grammar, 1)
	take(exercises, (k+1)/2)
	take(vocab, 1)
	rest = append(rest, other...)

	if len(picked) < k {
		picked = append(picked, Sample(rng, rest, k-len(picked))...)
	}
	return Sample(rng, picked, len(picked))
}

func without(bucket, chosen []model.LearningUnit) []model.LearningUnit {
	ids := make(map[string]struct{}, len(chosen))
	for _, u := range chosen {
		ids[u.ID] = struct{}{}
	}
	out := make([]model.LearningUnit, 0, len(bucket)-len(chosen))
	for _, u := range bucket {
		if _, ok := ids[u.ID]; !ok {
			out = append(out, u)
		}
	}
	return out
}
