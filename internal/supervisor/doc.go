// Package supervisor は3つのサービスを独立したプロセスとして起動し、
// 定期的なヘルスチェックを行い、停止要求や致命的な障害の際にまとめて停止する。
//
// 停止処理は全ハンドルに対して並行に行い、終了待ちには上限を設ける。
// 上限を超えたプロセスは強制終了するため、応答しない1プロセスで全体が止まることはない。
// スーパーバイザー自身が終了する前に、起動済みのハンドルは必ず停止する。
package supervisor
