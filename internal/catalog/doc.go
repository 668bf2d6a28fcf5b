// Package catalog はルート定義からサービスカタログを構築する。
//
// ルーターのルート定義のうち、IDがサービス接尾辞（デフォルト "-service"）で
// 終わるものをバックエンドサービスとみなし、サービス名・ゲートウェイ上の公開パス・
// APIドキュメントのURLを導出する。
//
// カタログは構築後に変更されない。再構築時は新しいスナップショットを丸ごと作成し、
// Storeのポインタを差し替えることで公開する。読み取り側はロック不要で、
// 構築途中のカタログを観測することはない。
package catalog
