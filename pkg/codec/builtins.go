package codec

// builtinCodecs enumerates the codecs preloaded by Builtin().
func builtinCodecs() []Codec {
	return []Codec{
		systemRulesCodec{},
		toolSchemaCodec{},
		structuredReferenceCodec{},
		conversationHistoryCodec{},
		toolOutputCodec{},
		redactedStubCodec{},
		unsafeTextCodec{},
		userTurnCodec{},
	}
}
