package anthropic

// BuildCachedSystemBlocks constructs a system block with a prompt-cache
// breakpoint. Relevance and extraction prompts are identical across the seeds
// of one discovery run, so the 5-minute ephemeral cache is enough.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
}
