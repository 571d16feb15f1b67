package util

// ContextUserKey gin 上下文中保存 JWT claims 的 key
const ContextUserKey = "user"
