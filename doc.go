// Package ddsflow is a typed publish/subscribe layer on top of Watermill that
// models DDS-style domains, topics, and QoS over ordinary message transports.
// It reads the target transport (Go Channels, NATS, NATS JetStream, Kafka,
// RabbitMQ, or AWS SNS/SQS) from Config, builds the middleware connection per
// domain, and runs a discovery service so publishers and subscribers learn
// about each other and fire match callbacks.
//
// A domain participant is the unit of connectivity: NewDomainParticipant
// returns the (reference-counted) participant for a numeric domain id, shared
// by everything in the process that asks for the same domain. Publishers and
// subscribers are created per topic with NewPublisher and NewSubscriber; both
// are generic over the sample type, encode protobuf messages with protojson
// and everything else as JSON, and enforce that one topic never carries two
// different data types.
//
// # QoS
//
// Each data type has a QoS defaults profile (writer Reliable, reader
// BestEffort, history depth 10 unless overridden via RegisterQoSDefaults) and
// every construction can override it with options. Matching follows the DDS
// offered/requested rule: a Reliable reader only matches Reliable writers,
// while a best-effort reader matches both.
//
// # Transports
//
// Transports live in sub-packages of transport/ and register themselves on
// import:
//   - channel: in-memory bus shared per domain id, for tests and in-process use
//   - nats: NATS Core (best-effort delivery)
//   - nats-jetstream: NATS JetStream with one stream per domain
//   - kafka: Kafka via Sarama
//   - rabbitmq: AMQP with a non-durable queue per subscriber
//   - aws: AWS SNS/SQS with LocalStack support
//
// The channel transport is imported by default through this package, so a
// zero-value Config works out of the box. Import the others explicitly:
//
//	import _ "github.com/drblury/ddsflow/transport/nats"
//
// # Observability
//
// Samples carry W3C trace context in their metadata and each data callback
// runs inside a consumer span. Setting Config.MetricsEnabled registers
// Prometheus counters for published, received, and dropped samples plus a
// matched-endpoints gauge.
package ddsflow
