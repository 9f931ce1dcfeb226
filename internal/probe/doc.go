package probe

// RingbufSource expects a compiled collection at DefaultObjectPath exporting:
//
//   - a BPF_MAP_TYPE_ARRAY map named "khor_cfg" with one entry, holding the
//     wireConfig layout in this package (enabled_mask, sample_interval_ms,
//     tgid_allow, tgid_deny, cgroup_id);
//   - a BPF_MAP_TYPE_RINGBUF map named "events";
//   - tracepoint programs named tp_execve, tp_net_rx, tp_net_tx,
//     tp_sched_switch, tp_block_rq_issue, tp_block_rq_complete attaching to
//     sched:sched_process_exec, net:netif_receive_skb, net:net_dev_start_xmit,
//     sched:sched_switch, block:block_rq_issue, block:block_rq_complete
//     respectively.
//
// Each tracepoint accumulates into a per-CPU PERCPU_ARRAY accumulator and
// flushes a SAMPLE record onto "events" once sample_interval_ms has elapsed
// since the last flush and at least one accumulator field is non-zero.
// Compiling and loading this object is an external collaborator concern;
// this package only consumes the result.
